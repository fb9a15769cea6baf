package core

import "treestore/pkg/common"

// Index is the read-only query surface over a flat record list.
// Lookups that can miss return (nil, false); list queries return an
// empty, non-nil slice instead of signalling absence.
type Index interface {
	All() []common.Record
	Get(id common.Identifier) (*common.Record, bool)
	Children(id common.Identifier) []*common.Record
	Descendants(id common.Identifier) []*common.Record
	Ancestors(id common.Identifier) []*common.Record
	Range(start, end common.Identifier) []*common.Record
	Size() int
	Type() string // "Adjacency"
}
