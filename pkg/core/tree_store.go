package core

import (
	"errors"
	"fmt"

	"treestore/pkg/common"
	"treestore/pkg/core/memory"
)

// ErrCycle is returned by the checked traversals when parent links loop.
var ErrCycle = errors.New("parent cycle detected")

type node struct {
	self     *common.Record
	parent   *common.Record
	children []*common.Record
}

// TreeStore indexes a flat list of parent-referencing records.
//
// The store keeps the slice it was built from and hands out pointers into it;
// callers must not modify that slice afterwards. Once New returns nothing in
// the store changes, so concurrent readers need no locking.
//
// Ids are expected to be unique. With duplicates, Get returns the last record
// carrying the id while parent resolution uses the first one.
type TreeStore struct {
	items []common.Record
	nodes map[common.Identifier]*node
	ids   *memory.IDTree
	roots []*common.Record
}

var _ Index = (*TreeStore)(nil)

// New builds the index in two linear passes: the first groups records by
// parent id, the second resolves every record's parent and children.
func New(items []common.Record) *TreeStore {
	groups := make(map[common.Identifier][]*common.Record, len(items))
	first := make(map[common.Identifier]*common.Record, len(items))
	for i := range items {
		rec := &items[i]
		groups[rec.Parent] = append(groups[rec.Parent], rec)
		if _, ok := first[rec.ID]; !ok {
			first[rec.ID] = rec
		}
	}

	ts := &TreeStore{
		items: items,
		nodes: make(map[common.Identifier]*node, len(first)),
		ids:   memory.NewIDTree(32),
	}
	for i := range items {
		rec := &items[i]
		n := &node{
			self:     rec,
			parent:   first[rec.Parent],
			children: groups[rec.ID],
		}
		ts.nodes[rec.ID] = n
		ts.ids.Put(rec.ID, rec)
		if n.parent == nil {
			ts.roots = append(ts.roots, rec)
		}
	}
	return ts
}

// All returns the slice the store was built from.
func (ts *TreeStore) All() []common.Record {
	return ts.items
}

func (ts *TreeStore) Get(id common.Identifier) (*common.Record, bool) {
	n, ok := ts.nodes[id]
	if !ok {
		return nil, false
	}
	return n.self, true
}

// Parent returns the resolved parent of id. It reports false for unknown ids
// and for root-like records.
func (ts *TreeStore) Parent(id common.Identifier) (*common.Record, bool) {
	n, ok := ts.nodes[id]
	if !ok || n.parent == nil {
		return nil, false
	}
	return n.parent, true
}

func (ts *TreeStore) Children(id common.Identifier) []*common.Record {
	n, ok := ts.nodes[id]
	if !ok || len(n.children) == 0 {
		return []*common.Record{}
	}
	return n.children[:len(n.children):len(n.children)]
}

// Descendants lists the direct children of id followed by the descendants of
// each child in turn. Parent cycles reachable from id make it loop forever;
// use DescendantsChecked for untrusted input.
func (ts *TreeStore) Descendants(id common.Identifier) []*common.Record {
	return ts.appendDescendants(make([]*common.Record, 0), id)
}

func (ts *TreeStore) appendDescendants(out []*common.Record, id common.Identifier) []*common.Record {
	n, ok := ts.nodes[id]
	if !ok {
		return out
	}
	out = append(out, n.children...)
	for _, child := range n.children {
		out = ts.appendDescendants(out, child.ID)
	}
	return out
}

// DescendantsChecked is Descendants with a guard that fails with ErrCycle
// instead of looping.
func (ts *TreeStore) DescendantsChecked(id common.Identifier) ([]*common.Record, error) {
	onPath := map[common.Identifier]bool{id: true}
	return ts.appendDescendantsChecked(make([]*common.Record, 0), id, onPath)
}

func (ts *TreeStore) appendDescendantsChecked(out []*common.Record, id common.Identifier, onPath map[common.Identifier]bool) ([]*common.Record, error) {
	n, ok := ts.nodes[id]
	if !ok {
		return out, nil
	}
	out = append(out, n.children...)
	for _, child := range n.children {
		if onPath[child.ID] {
			return nil, fmt.Errorf("%w: %s descends from itself", ErrCycle, child.ID)
		}
		onPath[child.ID] = true
		var err error
		out, err = ts.appendDescendantsChecked(out, child.ID, onPath)
		if err != nil {
			return nil, err
		}
		delete(onPath, child.ID)
	}
	return out, nil
}

// Ancestors walks parent links from id, nearest parent first. The walk stops
// at the first parent reference that matches no record.
func (ts *TreeStore) Ancestors(id common.Identifier) []*common.Record {
	out := make([]*common.Record, 0)
	n, ok := ts.nodes[id]
	if !ok {
		return out
	}
	for p := n.parent; p != nil; p = ts.lookupSelf(p.Parent) {
		out = append(out, p)
	}
	return out
}

// AncestorsChecked is Ancestors with a guard that fails with ErrCycle
// instead of looping.
func (ts *TreeStore) AncestorsChecked(id common.Identifier) ([]*common.Record, error) {
	out := make([]*common.Record, 0)
	n, ok := ts.nodes[id]
	if !ok {
		return out, nil
	}
	seen := map[common.Identifier]bool{id: true}
	for p := n.parent; p != nil; p = ts.lookupSelf(p.Parent) {
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: %s is its own ancestor", ErrCycle, p.ID)
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

func (ts *TreeStore) lookupSelf(id common.Identifier) *common.Record {
	if n, ok := ts.nodes[id]; ok {
		return n.self
	}
	return nil
}

// Roots returns the root-like records, in input order.
func (ts *TreeStore) Roots() []*common.Record {
	if len(ts.roots) == 0 {
		return []*common.Record{}
	}
	return ts.roots[:len(ts.roots):len(ts.roots)]
}

// Range returns the records whose id falls in [start, end], ordered by id.
func (ts *TreeStore) Range(start, end common.Identifier) []*common.Record {
	out := make([]*common.Record, 0)
	ts.ids.Range(start, end, func(_ common.Identifier, rec *common.Record) bool {
		out = append(out, rec)
		return true
	})
	return out
}

// IDs returns every distinct id in identifier order.
func (ts *TreeStore) IDs() []common.Identifier {
	out := make([]common.Identifier, 0, ts.ids.Count())
	ts.ids.Iterator(func(id common.Identifier, _ *common.Record) bool {
		out = append(out, id)
		return true
	})
	return out
}

func (ts *TreeStore) Size() int {
	return len(ts.nodes)
}

func (ts *TreeStore) Type() string {
	return "Adjacency"
}
