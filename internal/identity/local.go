package identity

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"mindcue/internal/types"
)

// Provider supplies the display identity. The workflow never gates on it.
type Provider interface {
	Current(ctx context.Context) (types.User, error)
	SignOut(ctx context.Context) error
}

type session struct {
	User       types.User `json:"user"`
	SignedInAt time.Time  `json:"signed_in_at"`
}

// Local derives the user from configuration or the OS account and keeps a
// session marker file so sign-out survives restarts.
type Local struct {
	path        string
	displayName string
	email       string
	now         func() time.Time
	lookup      func() string
}

type Option func(*Local)

func WithDisplayName(name string) Option {
	return func(l *Local) { l.displayName = strings.TrimSpace(name) }
}

func WithEmail(email string) Option {
	return func(l *Local) { l.email = strings.TrimSpace(email) }
}

func WithClock(now func() time.Time) Option {
	return func(l *Local) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLocal(sessionPath string, opts ...Option) *Local {
	l := &Local{
		path:   strings.TrimSpace(sessionPath),
		now:    func() time.Time { return time.Now().UTC() },
		lookup: osUsername,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func osUsername() string {
	if u, err := user.Current(); err == nil && strings.TrimSpace(u.Username) != "" {
		return strings.TrimSpace(u.Username)
	}
	return strings.TrimSpace(os.Getenv("USER"))
}

// Current returns the signed-in user, signing in from configuration when no
// session marker exists.
func (l *Local) Current(_ context.Context) (types.User, error) {
	if s, ok, err := l.read(); err != nil {
		return types.User{}, err
	} else if ok {
		return s.User, nil
	}
	u := l.derive()
	if err := l.write(session{User: u, SignedInAt: l.now()}); err != nil {
		return types.User{}, err
	}
	return u, nil
}

// SignedIn reports whether a session marker exists.
func (l *Local) SignedIn() bool {
	_, ok, err := l.read()
	return err == nil && ok
}

func (l *Local) SignOut(_ context.Context) error {
	if l.path == "" {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) derive() types.User {
	username := l.lookup()
	if username == "" {
		username = "guest"
	}
	name := l.displayName
	if name == "" {
		name = username
	}
	id := "local:" + username
	if l.email != "" {
		id = "local:" + strings.ToLower(l.email)
	}
	return types.User{ID: id, DisplayName: name, Email: l.email}
}

func (l *Local) read() (session, bool, error) {
	if l.path == "" {
		return session{}, false, nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return session{}, false, nil
		}
		return session{}, false, err
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return session{}, false, err
	}
	if s.User.ID == "" {
		return session{}, false, nil
	}
	return s, true, nil
}

func (l *Local) write(s session) error {
	if l.path == "" {
		return nil
	}
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	file, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(file.Name())
	}()
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(file.Name(), l.path)
}
