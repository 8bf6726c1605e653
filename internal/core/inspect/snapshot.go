// Package inspect captures tree state for debugging tools and streams it over
// websockets.
package inspect

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/pkg/generic"
)

var digests = generic.NewPool(xxhash.New, func(d *xxhash.Digest) { d.Reset() })

// NodeSnapshot is the observable state of one node. Variant fields are set only
// for the kinds that have them.
type NodeSnapshot struct {
	Kind     string         `json:"kind"`
	Name     string         `json:"name,omitempty"`
	Status   string         `json:"status"`
	Cursor   *int           `json:"cursor,omitempty"`
	Policy   string         `json:"policy,omitempty"`
	Count    *int           `json:"count,omitempty"`
	Iter     *int           `json:"iteration,omitempty"`
	Elapsed  string         `json:"elapsed,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Children []NodeSnapshot `json:"children,omitempty"`
}

// Snapshot is the observable state of a whole tree.
type Snapshot struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Status string `json:"status"`
	// Shape fingerprints the node layout (kinds, names, nesting); it changes only
	// when the structure does, not on progress.
	Shape      string         `json:"shape"`
	Root       *NodeSnapshot  `json:"root,omitempty"`
	Blackboard map[string]any `json:"blackboard,omitempty"`
}

// Frame is one broadcast of every managed tree.
type Frame struct {
	Seq   uint64     `json:"seq"`
	Time  time.Time  `json:"time"`
	Trees []Snapshot `json:"trees"`
}

// Capture reads tree without modifying it. The caller must hold whatever lock
// guards the tree.
func Capture(tree *bt.BehaviorTree) Snapshot {
	s := Snapshot{
		Name:   tree.Name(),
		Status: tree.Status().String(),
		Shape:  Fingerprint(tree.Root()),
	}
	if root := tree.Root(); root != nil {
		n := captureNode(root)
		s.Root = &n
	}

	bb := tree.Blackboard()
	if bb.Len() > 0 {
		s.Blackboard = make(map[string]any, bb.Len())
		bb.Range(func(key string, kind bt.Kind, value any) bool {
			switch kind {
			case bt.KindInt, bt.KindFloat, bt.KindBool, bt.KindString:
				s.Blackboard[key] = value
			default:
				s.Blackboard[key] = fmt.Sprintf("<%s>", kind)
			}
			return true
		})
	}
	return s
}

func captureNode(n bt.Node) NodeSnapshot {
	s := NodeSnapshot{Kind: n.Kind(), Name: n.Name(), Status: n.Status().String()}

	switch v := n.(type) {
	case *bt.Sequence:
		s.Cursor = ptr(v.Cursor())
	case *bt.Selector:
		s.Cursor = ptr(v.Cursor())
	case *bt.Parallel:
		s.Policy = v.Policy().String()
	case *bt.Repeat:
		s.Count = ptr(v.Count())
		s.Iter = ptr(v.Iteration())
	case *bt.Wait:
		s.Elapsed = v.Elapsed().String()
		s.Duration = v.Duration().String()
	}

	for _, ch := range n.Children() {
		s.Children = append(s.Children, captureNode(ch))
	}
	return s
}

// Fingerprint hashes the structure below root. A nil root hashes to zero.
func Fingerprint(root bt.Node) string {
	if root == nil {
		return strconv.FormatUint(0, 16)
	}
	d := digests.Get()
	defer digests.Put(d)
	bt.Walk(root, func(n bt.Node, depth int) bool {
		_, _ = d.WriteString(strconv.Itoa(depth))
		_, _ = d.WriteString("/")
		_, _ = d.WriteString(n.Kind())
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(n.Name())
		_, _ = d.WriteString(";")
		return true
	})
	return strconv.FormatUint(d.Sum64(), 16)
}

func ptr[T any](v T) *T { return &v }
