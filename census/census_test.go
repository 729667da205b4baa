package census

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

var testViewport = Viewport{Width: 1280, Height: 800}

func shown() Box {
	return Box{Display: "block", Visibility: "visible", Opacity: "1",
		Rect: Rect{Top: 10, Left: 10, Width: 100, Height: 20}}
}

func hidden() Box {
	b := shown()
	b.Display = "none"
	return b
}

func TestTake_NilRoot(t *testing.T) {
	if snap := Take(nil, testViewport); snap != nil {
		t.Fatalf("Take(nil): got %+v, want nil", snap)
	}
}

func TestTake_Leaf(t *testing.T) {
	snap := Take(Element("DIV"), testViewport)
	if snap == nil {
		t.Fatal("Take(leaf): got nil snapshot")
	}
	if len(snap.Counts) != 0 || snap.Total != 0 || snap.Visible != 0 {
		t.Fatalf("leaf: got counts=%v total=%d visible=%d", snap.Counts, snap.Total, snap.Visible)
	}
}

func TestTake_CountsAllNodeKinds(t *testing.T) {
	root := Element("DIV",
		Element("P", Text(), Element("SPAN", Text()).WithBox(shown())).WithBox(shown()),
		Comment(),
		Text(),
		Element("P").WithBox(hidden()),
	)

	snap := Take(root, testViewport)

	want := map[string]GroupCount{
		"P":        {Count: 2, Visible: 1},
		"SPAN":     {Count: 1, Visible: 1},
		"#text":    {Count: 3, Visible: 0},
		"#comment": {Count: 1, Visible: 0},
	}
	if len(snap.Counts) != len(want) {
		t.Fatalf("groups: got %v, want %v", snap.Counts, want)
	}
	for k, w := range want {
		if got := snap.Counts[k]; got != w {
			t.Errorf("counts[%q]: got %+v, want %+v", k, got, w)
		}
	}
	if snap.Total != 7 {
		t.Errorf("total: got %d, want 7", snap.Total)
	}
	if snap.Visible != 2 {
		t.Errorf("visible: got %d, want 2", snap.Visible)
	}
	if err := snap.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestTake_KeepsCasingConventions(t *testing.T) {
	root := Element("BODY",
		Element("svg", Element("foreignObject")),
		&MemNode{NodeKind: KindText, NodeName: "#TEXT"},
		&MemNode{NodeKind: KindCDATA, NodeName: "#cdata-section"},
	)
	snap := Take(root, testViewport)

	for _, key := range []string{"svg", "foreignObject", "#text", "#cdata-section"} {
		if snap.Counts[key].Count != 1 {
			t.Errorf("counts[%q]: got %d, want 1 (all: %v)", key, snap.Counts[key].Count, snap.Counts)
		}
	}
	if _, ok := snap.Counts["SVG"]; ok {
		t.Error("element tag must not be upper-cased by the census")
	}
}

func TestTake_RootNotCounted(t *testing.T) {
	root := Element("SECTION", Element("SECTION"))
	snap := Take(root, testViewport)
	if snap.Counts["SECTION"].Count != 1 || snap.Total != 1 {
		t.Fatalf("got %+v total=%d, want one SECTION", snap.Counts, snap.Total)
	}
}

func TestTake_SkipsNilChildren(t *testing.T) {
	root := &MemNode{NodeKind: KindElement, NodeName: "UL", Kids: []*MemNode{
		Element("LI"), nil, Element("LI", nil, Text()),
	}}
	snap := Take(root, testViewport)
	if snap.Total != 3 {
		t.Fatalf("total: got %d, want 3", snap.Total)
	}
	if snap.Counts["LI"].Count != 2 || snap.Counts["#text"].Count != 1 {
		t.Fatalf("counts: got %v", snap.Counts)
	}
}

func TestTake_NonElementNeverVisible(t *testing.T) {
	txt := Text().WithBox(shown())
	snap := Take(Element("DIV", txt), testViewport)
	if snap.Visible != 0 || snap.Counts["#text"].Visible != 0 {
		t.Fatalf("text node counted as visible: %+v", snap)
	}
}

func TestTake_Idempotent(t *testing.T) {
	root := Element("DIV", Element("A").WithBox(shown()), Text(), Element("A"))
	a := Take(root, testViewport)
	b := Take(root, testViewport)
	if a.Total != b.Total || a.Visible != b.Visible || len(a.Counts) != len(b.Counts) {
		t.Fatalf("census not idempotent: %+v vs %+v", a, b)
	}
	for k, g := range a.Counts {
		if b.Counts[k] != g {
			t.Errorf("counts[%q]: %+v vs %+v", k, g, b.Counts[k])
		}
	}
}

func TestTakeContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, err := TakeContext(ctx, Element("DIV", Text()), testViewport)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err: got %v, want context.Canceled", err)
	}
	if snap != nil {
		t.Fatalf("snapshot: got %+v, want nil", snap)
	}
}

func TestDescribe(t *testing.T) {
	root := Element("DIV").WithID("main").WithClasses("a", "b")
	d := Describe(root)
	if d.Tag != "div" || d.ID != "main" || len(d.ClassList) != 2 {
		t.Fatalf("describe: got %+v", d)
	}
	if got := d.Title(); got != "div#main.a.b" {
		t.Errorf("title: got %q, want %q", got, "div#main.a.b")
	}

	plain := Describe(Element("SPAN"))
	if plain.ClassList == nil {
		t.Error("class list must be empty, not nil")
	}
	if got := plain.Title(); got != "span" {
		t.Errorf("title: got %q, want %q", got, "span")
	}

	var none *NodeDescriptor
	if got := none.Title(); got != "(no element selected)" {
		t.Errorf("nil title: got %q", got)
	}
}

func TestDescribe_CopiesClassList(t *testing.T) {
	root := Element("DIV").WithClasses("x")
	d := Describe(root)
	root.ClassList[0] = "changed"
	if d.ClassList[0] != "x" {
		t.Fatal("descriptor shares the class slice with the node")
	}
}

func TestSnapshot_Validate(t *testing.T) {
	bad := &Snapshot{Total: 1, Visible: 2, Counts: map[string]GroupCount{"A": {Count: 1, Visible: 2}}}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for visible > count")
	}
	sum := &Snapshot{Total: 5, Counts: map[string]GroupCount{"A": {Count: 1}}}
	if err := sum.Validate(); err == nil {
		t.Fatal("expected error for total mismatch")
	}
}

func TestMemNode_DecodeJSON(t *testing.T) {
	payload := `{"k":1,"n":"DIV","c":[
		{"k":1,"n":"P","b":{"display":"block","visibility":"visible","opacity":"1","rect":{"top":0,"left":0,"width":10,"height":10}}},
		{"k":3,"n":"#text"}
	]}`
	var root MemNode
	if err := json.Unmarshal([]byte(payload), &root); err != nil {
		t.Fatal(err)
	}
	snap := Take(&root, testViewport)
	if snap.Total != 2 || snap.Visible != 1 {
		t.Fatalf("decoded census: got total=%d visible=%d", snap.Total, snap.Visible)
	}
}
