// Package census counts the descendants of a DOM node, grouped by tag or node
// name, together with how many of them are visible in the viewport.
//
// The census is a pure read of the tree it is given. A Snapshot is never
// mutated after Take returns; a new selection produces a new Snapshot.
package census

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// GroupCount is the tally for one tag or node name.
type GroupCount struct {
	Count   int `json:"count"`
	Visible int `json:"visible"`
}

// NodeDescriptor identifies the node a census was taken from.
type NodeDescriptor struct {
	Tag       string   `json:"tag"`
	ClassList []string `json:"classList"`
	ID        string   `json:"id,omitempty"`
}

// Title renders the descriptor as tag#id.class1.class2. A nil descriptor
// renders as "(no element selected)".
func (d *NodeDescriptor) Title() string {
	if d == nil {
		return "(no element selected)"
	}
	var b strings.Builder
	b.WriteString(d.Tag)
	if d.ID != "" {
		b.WriteByte('#')
		b.WriteString(d.ID)
	}
	if len(d.ClassList) > 0 {
		b.WriteByte('.')
		b.WriteString(strings.Join(d.ClassList, "."))
	}
	return b.String()
}

// Snapshot is the result of one census.
type Snapshot struct {
	CurrentNode *NodeDescriptor       `json:"currentNode"`
	Total       int                   `json:"total"`
	Visible     int                   `json:"visible"`
	Counts      map[string]GroupCount `json:"counts"`
	TakenAt     time.Time             `json:"takenAt"`
}

// Take runs a census of root's descendants. The root itself is not counted.
// A nil root means nothing is selected and yields a nil Snapshot.
func Take(root Node, vp Viewport) *Snapshot {
	snap, _ := TakeContext(context.Background(), root, vp)
	return snap
}

// TakeContext is Take with cooperative cancellation: ctx is checked between
// sibling visits, and a cancelled census returns ctx.Err() and no snapshot.
func TakeContext(ctx context.Context, root Node, vp Viewport) (*Snapshot, error) {
	if root == nil {
		return nil, nil
	}
	w := walker{
		ctx:  ctx,
		vp:   vp,
		snap: &Snapshot{Counts: make(map[string]GroupCount)},
	}
	if err := w.visitChildren(root); err != nil {
		return nil, err
	}
	w.snap.CurrentNode = Describe(root)
	w.snap.TakenAt = time.Now()
	return w.snap, nil
}

type walker struct {
	ctx  context.Context
	vp   Viewport
	snap *Snapshot
}

func (w *walker) visitChildren(n Node) error {
	for _, child := range n.Children() {
		if child == nil {
			continue
		}
		if err := w.ctx.Err(); err != nil {
			return err
		}
		w.count(child)
		if err := w.visitChildren(child); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) count(n Node) {
	key := groupKey(n)
	g := w.snap.Counts[key]
	g.Count++
	w.snap.Total++
	if n.Kind() == KindElement {
		if box, ok := n.Box(); ok && IsVisible(box, w.vp) {
			g.Visible++
			w.snap.Visible++
		}
	}
	w.snap.Counts[key] = g
}

// groupKey keeps the DOM's own casing for element tags and lower-cases the
// node name of everything else, so "P" and "#text" never collide.
func groupKey(n Node) string {
	if n.Kind() == KindElement {
		return n.Name()
	}
	return strings.ToLower(n.Name())
}

// Describe builds the descriptor of root. It does not traverse.
func Describe(root Node) *NodeDescriptor {
	if root == nil {
		return nil
	}
	classes := root.Classes()
	list := make([]string, len(classes))
	copy(list, classes)
	return &NodeDescriptor{
		Tag:       strings.ToLower(root.Name()),
		ClassList: list,
		ID:        root.ID(),
	}
}

// Validate checks the totals against the per-group counts.
func (s *Snapshot) Validate() error {
	if s == nil {
		return nil
	}
	total, visible := 0, 0
	for key, g := range s.Counts {
		if g.Count < 0 || g.Visible < 0 || g.Visible > g.Count {
			return fmt.Errorf("census: group %q: visible %d out of range [0,%d]", key, g.Visible, g.Count)
		}
		total += g.Count
		visible += g.Visible
	}
	if total != s.Total {
		return fmt.Errorf("census: total %d, groups sum to %d", s.Total, total)
	}
	if visible != s.Visible {
		return fmt.Errorf("census: visible %d, groups sum to %d", s.Visible, visible)
	}
	return nil
}
