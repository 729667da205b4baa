package census

import "testing"

func TestIsVisible(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	base := Box{Display: "block", Visibility: "visible", Opacity: "1",
		Rect: Rect{Top: 100, Left: 100, Width: 50, Height: 50}}

	tests := []struct {
		name string
		edit func(*Box)
		want bool
	}{
		{"plain", func(*Box) {}, true},
		{"display none", func(b *Box) { b.Display = "none" }, false},
		{"visibility hidden", func(b *Box) { b.Visibility = "hidden" }, false},
		{"visibility collapse", func(b *Box) { b.Visibility = "collapse" }, false},
		{"opacity zero", func(b *Box) { b.Opacity = "0" }, false},
		{"opacity near zero", func(b *Box) { b.Opacity = "0.01" }, true},
		{"zero width", func(b *Box) { b.Rect.Width = 0 }, false},
		{"zero height", func(b *Box) { b.Rect.Height = 0 }, false},
		{"above viewport", func(b *Box) { b.Rect.Top = -50 }, false},
		{"partly above", func(b *Box) { b.Rect.Top = -49 }, true},
		{"left of viewport", func(b *Box) { b.Rect.Left = -50 }, false},
		{"below viewport", func(b *Box) { b.Rect.Top = 600 }, false},
		{"right of viewport", func(b *Box) { b.Rect.Left = 800 }, false},
		{"inline display", func(b *Box) { b.Display = "inline" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base
			tt.edit(&b)
			if got := IsVisible(b, vp); got != tt.want {
				t.Fatalf("IsVisible(%+v): got %v, want %v", b, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindElement.String() != "element" || KindText.String() != "text" || Kind(99).String() != "unknown" {
		t.Fatal("unexpected kind names")
	}
}
