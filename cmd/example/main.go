package main

import (
	"fmt"

	"treestore/pkg/common"
	"treestore/pkg/core"
)

func main() {
	test := common.TypeOf("test")
	items := []common.Record{
		{ID: common.IntID(1), Parent: common.StringID("root")},
		{ID: common.IntID(2), Parent: common.IntID(1), Type: test},
		{ID: common.IntID(3), Parent: common.IntID(1), Type: test},
		{ID: common.IntID(4), Parent: common.IntID(2), Type: test},
		{ID: common.IntID(5), Parent: common.IntID(2), Type: test},
		{ID: common.IntID(6), Parent: common.IntID(2), Type: test},
		{ID: common.IntID(7), Parent: common.IntID(4)},
		{ID: common.IntID(8), Parent: common.IntID(4)},
	}
	store := core.New(items)

	fmt.Printf("Indexed %d records.\n", len(store.All()))

	if rec, ok := store.Get(common.IntID(7)); ok {
		fmt.Printf("get(7)            = %s\n", rec)
	}
	if _, ok := store.Get(common.StringID("7")); !ok {
		fmt.Println(`get("7")          = null`)
	}
	fmt.Printf("children(2)       = %s\n", idList(store.Children(common.IntID(2))))
	fmt.Printf("descendants(2)    = %s\n", idList(store.Descendants(common.IntID(2))))
	fmt.Printf("ancestors(7)      = %s\n", idList(store.Ancestors(common.IntID(7))))
	fmt.Printf("children(69)      = %s\n", idList(store.Children(common.IntID(69))))
}

func idList(records []*common.Record) string {
	ids := make([]common.Identifier, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return fmt.Sprint(ids)
}
