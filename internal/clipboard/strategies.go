package clipboard

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	sysclip "github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// System writes to the operating system clipboard (pbcopy, xclip, xsel,
// wl-copy or the Windows API).
type System struct{}

func (System) Name() string { return "system" }

func (System) Available(ctx context.Context) bool { return !sysclip.Unsupported }

func (System) Copy(ctx context.Context, text string) error {
	if err := sysclip.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: system: %w", err)
	}
	return nil
}

// OSC52 asks the terminal to set the clipboard with an OSC 52 escape
// sequence. It works over SSH, wrapped for tmux and screen when detected.
type OSC52 struct {
	w   io.Writer
	env func(string) string
}

// NewOSC52 writes escape sequences to w, usually the controlling terminal.
func NewOSC52(w io.Writer) *OSC52 {
	return &OSC52{w: w, env: os.Getenv}
}

func (o *OSC52) Name() string { return "osc52" }

func (o *OSC52) Available(ctx context.Context) bool {
	return o.w != nil && o.env("TERM") != "dumb"
}

func (o *OSC52) Copy(ctx context.Context, text string) error {
	seq := osc52.New(text)
	switch {
	case o.env("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(o.env("TERM"), "screen"):
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(o.w); err != nil {
		return fmt.Errorf("clipboard: osc52: %w", err)
	}
	return nil
}

// Manual prints the text between markers so the user can select and copy
// it by hand. It always succeeds while it has somewhere to write.
type Manual struct {
	w io.Writer
}

// NewManual writes to w.
func NewManual(w io.Writer) *Manual {
	return &Manual{w: w}
}

func (m *Manual) Name() string { return "manual" }

func (m *Manual) Available(ctx context.Context) bool { return m.w != nil }

func (m *Manual) Copy(ctx context.Context, text string) error {
	const rule = "----------------------------------------"
	_, err := fmt.Fprintf(m.w, "%s\nCopy the table below manually:\n%s\n%s\n%s\n",
		rule, rule, strings.TrimRight(text, "\n"), rule)
	if err != nil {
		return fmt.Errorf("clipboard: manual: %w", err)
	}
	return nil
}
