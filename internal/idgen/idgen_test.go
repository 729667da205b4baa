package idgen

import (
	"sort"
	"strings"
	"testing"
)

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	if len(id) != 36 || id[14] != '7' {
		t.Fatalf("UUIDv7: got %q", id)
	}
	if _, err := Parse(id); err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
}

func TestUUIDv7_Sortable(t *testing.T) {
	gen := UUIDv7()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = gen()
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatal("UUIDv7: ids are not time-ordered")
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("rpt_", UUIDv7())()
	if !strings.HasPrefix(id, "rpt_") || len(id) != 40 {
		t.Fatalf("Prefixed: got %q", id)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("expected error")
	}
}
