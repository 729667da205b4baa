package clipboard

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type fake struct {
	name      string
	available bool
	err       error
	got       string
	calls     int
}

func (f *fake) Name() string                       { return f.name }
func (f *fake) Available(ctx context.Context) bool { return f.available }
func (f *fake) Copy(ctx context.Context, text string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.got = text
	return nil
}

func TestChain_FirstSuccessWins(t *testing.T) {
	a := &fake{name: "a", available: true, err: errors.New("denied")}
	b := &fake{name: "b", available: false}
	c := &fake{name: "c", available: true}
	d := &fake{name: "d", available: true}

	method, err := NewChain(nil, a, nil, b, c, d).Copy(context.Background(), "| x |")
	if err != nil {
		t.Fatal(err)
	}
	if method != "c" || c.got != "| x |" {
		t.Fatalf("method: got %q, text %q", method, c.got)
	}
	if b.calls != 0 {
		t.Fatal("unavailable strategy must not be called")
	}
	if d.calls != 0 {
		t.Fatal("chain must stop at the first success")
	}
}

func TestChain_Exhausted(t *testing.T) {
	denied := errors.New("denied")
	chain := NewChain(nil, &fake{name: "a", available: true, err: denied}, &fake{name: "b"})
	_, err := chain.Copy(context.Background(), "x")

	var ex *ErrExhausted
	if !errors.As(err, &ex) {
		t.Fatalf("got %v, want *ErrExhausted", err)
	}
	if len(ex.Attempts) != 2 || ex.Attempts[0].Method != "a" {
		t.Fatalf("attempts: %+v", ex.Attempts)
	}
	if !errors.Is(err, denied) || !errors.Is(err, ErrUnavailable) {
		t.Fatal("exhausted error must wrap every attempt")
	}
	if !strings.Contains(err.Error(), "a: denied") {
		t.Fatalf("message: %v", err)
	}
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain(nil).Copy(context.Background(), "x")
	var ex *ErrExhausted
	if !errors.As(err, &ex) || err.Error() != "clipboard: no copy strategy configured" {
		t.Fatalf("got %v", err)
	}
}

func TestChain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &fake{name: "a", available: true}
	if _, err := NewChain(nil, a).Copy(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	if a.calls != 0 {
		t.Fatal("cancelled chain must not copy")
	}
}

func TestManual(t *testing.T) {
	var buf bytes.Buffer
	method, err := NewChain(nil, &fake{name: "sys"}, NewManual(&buf)).Copy(context.Background(), "| a |\n")
	if err != nil || method != "manual" {
		t.Fatalf("got %q, %v", method, err)
	}
	if !strings.Contains(buf.String(), "Copy the table below manually") || !strings.Contains(buf.String(), "| a |") {
		t.Fatalf("output: %q", buf.String())
	}
	if NewManual(nil).Available(context.Background()) {
		t.Fatal("manual without writer must be unavailable")
	}
}

func TestOSC52(t *testing.T) {
	env := map[string]string{"TERM": "xterm-256color"}
	var buf bytes.Buffer
	o := &OSC52{w: &buf, env: func(k string) string { return env[k] }}

	if !o.Available(context.Background()) {
		t.Fatal("expected available")
	}
	if err := o.Copy(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	// "hi" base64-encodes to "aGk=".
	if out := buf.String(); !strings.HasPrefix(out, "\x1b]52;c;aGk=") {
		t.Fatalf("sequence: %q", out)
	}

	buf.Reset()
	env["TMUX"] = "/tmp/tmux-1000/default,1,0"
	if err := o.Copy(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "\x1bPtmux;") {
		t.Fatalf("tmux sequence: %q", buf.String())
	}

	env["TERM"] = "dumb"
	if o.Available(context.Background()) {
		t.Fatal("dumb terminal must be unavailable")
	}
}

func TestSelect(t *testing.T) {
	a, b := &fake{name: "a"}, &fake{name: "b"}
	got, err := Select([]string{"b", "a", "page"}, map[string]Strategy{"a": a, "b": b, "page": nil})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != Strategy(b) || got[1] != Strategy(a) {
		t.Fatalf("order: %v", got)
	}
	if _, err := Select([]string{"x"}, map[string]Strategy{}); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
