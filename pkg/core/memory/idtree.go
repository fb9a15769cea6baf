package memory

import (
	"treestore/pkg/common"

	"github.com/google/btree"
)

type Item struct {
	ID  common.Identifier
	Rec *common.Record
}

func (i Item) Less(than btree.Item) bool {
	return i.ID.Less(than.(Item).ID)
}

// IDTree keeps one record per identifier in identifier order. It is filled
// once while a store is built and only read afterwards.
type IDTree struct {
	tree *btree.BTree
}

func NewIDTree(degree int) *IDTree {
	return &IDTree{
		tree: btree.New(degree),
	}
}

// Put stores rec under id, replacing any earlier record with the same id.
func (t *IDTree) Put(id common.Identifier, rec *common.Record) {
	t.tree.ReplaceOrInsert(Item{ID: id, Rec: rec})
}

func (t *IDTree) Get(id common.Identifier) (*common.Record, bool) {
	res := t.tree.Get(Item{ID: id})
	if res == nil {
		return nil, false
	}
	return res.(Item).Rec, true
}

// Range visits ids in [start, end] in order until fn returns false.
func (t *IDTree) Range(start, end common.Identifier, fn func(id common.Identifier, rec *common.Record) bool) {
	if end.Less(start) {
		return
	}
	t.tree.AscendGreaterOrEqual(Item{ID: start}, func(i btree.Item) bool {
		item := i.(Item)
		if end.Less(item.ID) {
			return false
		}
		return fn(item.ID, item.Rec)
	})
}

func (t *IDTree) Iterator(fn func(id common.Identifier, rec *common.Record) bool) {
	t.tree.Ascend(func(i btree.Item) bool {
		item := i.(Item)
		return fn(item.ID, item.Rec)
	})
}

func (t *IDTree) Count() int {
	return t.tree.Len()
}
