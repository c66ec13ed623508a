package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

type clipboardMethod uint8

const (
	clipboardMethodSystem clipboardMethod = iota
	clipboardMethodOSC52
)

func (m clipboardMethod) String() string {
	if m == clipboardMethodOSC52 {
		return "terminal"
	}
	return "system"
}

var (
	clipboardWriteAll   = clipboard.WriteAll
	clipboardWriteOSC52 = writeOSC52Clipboard
)

// copyText tries the system clipboard first and falls back to an OSC52
// escape sequence written to the controlling terminal.
func copyText(text string) (clipboardMethod, error) {
	sysErr := clipboardWriteAll(text)
	if sysErr == nil {
		return clipboardMethodSystem, nil
	}
	oscErr := clipboardWriteOSC52(text)
	if oscErr == nil {
		return clipboardMethodOSC52, nil
	}
	return clipboardMethodSystem, combineClipboardErrors(sysErr, oscErr)
}

func writeOSC52Clipboard(text string) error {
	if !osc52Enabled() {
		return errors.New("OSC52 unavailable for this terminal")
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()
	return writeOSC52Sequence(tty, text, os.Getenv("TERM"), os.Getenv("TMUX") != "")
}

func writeOSC52Sequence(w io.Writer, text, term string, tmux bool) error {
	seq := osc52.New(text)
	switch {
	case tmux:
		// plain first, then wrapped, for either tmux set-clipboard mode
		if _, err := seq.WriteTo(w); err != nil {
			return err
		}
		_, err := seq.Tmux().WriteTo(w)
		return err
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(term)), "screen"):
		_, err := seq.Screen().WriteTo(w)
		return err
	default:
		_, err := seq.WriteTo(w)
		return err
	}
}

func osc52Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MINDCUE_DISABLE_OSC52"))) {
	case "1", "true", "yes", "on":
		return false
	}
	term := strings.TrimSpace(os.Getenv("TERM"))
	return term != "" && !strings.EqualFold(term, "dumb")
}

func combineClipboardErrors(systemErr, oscErr error) error {
	if missingDisplay() {
		return fmt.Errorf("no GUI clipboard available (DISPLAY/WAYLAND_DISPLAY unset); OSC52 fallback failed: %s", humanizeClipboardError(oscErr))
	}
	return fmt.Errorf("system clipboard failed: %s; OSC52 fallback failed: %s", humanizeClipboardError(systemErr), humanizeClipboardError(oscErr))
}

func humanizeClipboardError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "exit status 1" {
		return "clipboard helper exited with status 1"
	}
	return msg
}

func missingDisplay() bool {
	return strings.TrimSpace(os.Getenv("DISPLAY")) == "" && strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) == ""
}
