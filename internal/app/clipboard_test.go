package app

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func stubClipboard(t *testing.T, system, osc func(string) error) {
	t.Helper()
	prevSystem, prevOSC := clipboardWriteAll, clipboardWriteOSC52
	clipboardWriteAll, clipboardWriteOSC52 = system, osc
	t.Cleanup(func() {
		clipboardWriteAll, clipboardWriteOSC52 = prevSystem, prevOSC
	})
}

func TestCopyTextPrefersSystemClipboard(t *testing.T) {
	var got string
	stubClipboard(t,
		func(text string) error { got = text; return nil },
		func(string) error { t.Fatalf("unexpected OSC52 fallback"); return nil },
	)
	method, err := copyText("Script 1")
	if err != nil {
		t.Fatalf("copyText: %v", err)
	}
	if method != clipboardMethodSystem || got != "Script 1" {
		t.Fatalf("unexpected copy result %v %q", method, got)
	}
}

func TestCopyTextFallsBackToOSC52(t *testing.T) {
	stubClipboard(t,
		func(string) error { return errors.New("exit status 1") },
		func(string) error { return nil },
	)
	method, err := copyText("Script 1")
	if err != nil {
		t.Fatalf("copyText: %v", err)
	}
	if method != clipboardMethodOSC52 || method.String() != "terminal" {
		t.Fatalf("expected OSC52 method, got %v", method)
	}
}

func TestCopyTextReportsBothFailures(t *testing.T) {
	t.Setenv("DISPLAY", ":0")
	stubClipboard(t,
		func(string) error { return errors.New("exit status 1") },
		func(string) error { return errors.New("no tty") },
	)
	_, err := copyText("Script 1")
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "clipboard helper exited with status 1") || !strings.Contains(msg, "no tty") {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestWriteOSC52Sequence(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello"))

	var plain bytes.Buffer
	if err := writeOSC52Sequence(&plain, "hello", "xterm-256color", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasPrefix(plain.String(), "\x1b]52;c;"+encoded) {
		t.Fatalf("unexpected plain sequence %q", plain.String())
	}

	var tmux bytes.Buffer
	if err := writeOSC52Sequence(&tmux, "hello", "screen-256color", true); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasPrefix(tmux.String(), "\x1b]52;c;"+encoded) || !strings.Contains(tmux.String(), "\x1bPtmux;") {
		t.Fatalf("expected plain and tmux-wrapped sequences, got %q", tmux.String())
	}

	var screen bytes.Buffer
	if err := writeOSC52Sequence(&screen, "hello", "screen", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasPrefix(screen.String(), "\x1bP") {
		t.Fatalf("expected screen DCS wrapper, got %q", screen.String())
	}
}

func TestOSC52CanBeDisabled(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("MINDCUE_DISABLE_OSC52", "yes")
	if osc52Enabled() {
		t.Fatalf("expected OSC52 disabled by env")
	}
	t.Setenv("MINDCUE_DISABLE_OSC52", "")
	if !osc52Enabled() {
		t.Fatalf("expected OSC52 enabled")
	}
	t.Setenv("TERM", "dumb")
	if osc52Enabled() {
		t.Fatalf("expected OSC52 disabled for dumb terminals")
	}
}
