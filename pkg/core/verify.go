package core

import (
	"errors"
	"fmt"

	"treestore/pkg/common"
)

// DefaultRootSentinel is the parent value conventionally used by top-level records.
var DefaultRootSentinel = common.StringID("root")

// Report lists structural problems found by Verify. Verify never changes the
// store; the query methods behave the same whether or not a report is clean.
type Report struct {
	Duplicates []common.Identifier
	Dangling   []*common.Record
	SelfRefs   []*common.Record
	Cycles     []common.Identifier
}

func (r Report) OK() bool {
	return len(r.Duplicates) == 0 && len(r.Dangling) == 0 && len(r.SelfRefs) == 0 && len(r.Cycles) == 0
}

// Err joins every problem into one error, or returns nil for a clean report.
func (r Report) Err() error {
	var errs []error
	for _, id := range r.Duplicates {
		errs = append(errs, fmt.Errorf("duplicate id %s", id))
	}
	for _, rec := range r.Dangling {
		errs = append(errs, fmt.Errorf("record %s: parent %s matches no record", rec.ID, rec.Parent))
	}
	for _, rec := range r.SelfRefs {
		errs = append(errs, fmt.Errorf("record %s: %w: parent is itself", rec.ID, ErrCycle))
	}
	if len(r.Cycles) > 0 {
		errs = append(errs, fmt.Errorf("%w through %v", ErrCycle, r.Cycles))
	}
	return errors.Join(errs...)
}

// Verify inspects the input list. A parent reference that matches no record
// is reported as dangling unless it equals one of sentinels; with no
// sentinels given, DefaultRootSentinel is assumed.
func (ts *TreeStore) Verify(sentinels ...common.Identifier) Report {
	if len(sentinels) == 0 {
		sentinels = []common.Identifier{DefaultRootSentinel}
	}
	isSentinel := make(map[common.Identifier]bool, len(sentinels))
	for _, s := range sentinels {
		isSentinel[s] = true
	}

	var rep Report
	seen := make(map[common.Identifier]int, len(ts.items))
	for i := range ts.items {
		rec := &ts.items[i]
		seen[rec.ID]++
		if seen[rec.ID] == 2 {
			rep.Duplicates = append(rep.Duplicates, rec.ID)
		}
		if rec.Parent == rec.ID {
			rep.SelfRefs = append(rep.SelfRefs, rec)
			continue
		}
		if _, ok := ts.nodes[rec.Parent]; !ok && !isSentinel[rec.Parent] {
			rep.Dangling = append(rep.Dangling, rec)
		}
	}

	rep.Cycles = ts.findCycles()
	return rep
}

const (
	unvisited = iota
	visiting
	done
)

// findCycles follows parent links from every record and collects ids on
// loops longer than one record. Self references are reported separately.
func (ts *TreeStore) findCycles() []common.Identifier {
	var cycles []common.Identifier
	state := make(map[common.Identifier]uint8, len(ts.nodes))

	for i := range ts.items {
		id := ts.items[i].ID
		var path []common.Identifier
		for {
			st := state[id]
			if st == done {
				break
			}
			if st == visiting {
				start := 0
				for path[start] != id {
					start++
				}
				if loop := path[start:]; len(loop) > 1 {
					cycles = append(cycles, loop...)
				}
				break
			}
			state[id] = visiting
			path = append(path, id)

			n, ok := ts.nodes[id]
			if !ok || n.parent == nil {
				break
			}
			id = n.parent.ID
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return cycles
}
