package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"treestore/pkg/common"
	"treestore/pkg/core"

	flag "github.com/spf13/pflag"
)

func main() {
	nodes := flag.Int("nodes", 200000, "Number of records in the synthetic tree")
	fanout := flag.Int("fanout", 8, "Maximum children per node")
	nReq := flag.Int("n", 100000, "Number of queries per run")
	flag.Parse()
	if err := checkFlags(*nodes, *nReq); err != nil {
		log.Fatalf("[Benchmark] %v", err)
	}

	fmt.Printf("TreeStore Benchmark (nodes=%d fanout=%d N=%d)\n", *nodes, *fanout, *nReq)
	fmt.Println("---------------------------------------------------")

	items := generate(*nodes, *fanout)

	start := time.Now()
	store := core.New(items)
	build := time.Since(start)
	fmt.Printf(">> Build: %v (%d ids, %d roots)\n", build, store.Size(), len(store.Roots()))

	rng := rand.New(rand.NewSource(1))
	pick := func() common.Identifier { return common.IntID(int64(rng.Intn(*nodes))) }

	run("get", *nReq, func() int {
		if _, ok := store.Get(pick()); ok {
			return 1
		}
		return 0
	})
	run("children", *nReq, func() int { return len(store.Children(pick())) })
	run("ancestors", *nReq, func() int { return len(store.Ancestors(pick())) })
	run("descendants", *nReq/100+1, func() int { return len(store.Descendants(pick())) })

	fmt.Println("---------------------------------------------------")
}

func checkFlags(nodes, n int) error {
	if nodes < 1 {
		return fmt.Errorf("--nodes must be at least 1, got %d", nodes)
	}
	if n < 0 {
		return fmt.Errorf("-n must not be negative, got %d", n)
	}
	return nil
}

// generate builds a random tree where every record's parent appears earlier
// in the list, so the input is acyclic.
func generate(n, fanout int) []common.Record {
	rng := rand.New(rand.NewSource(42))
	if fanout < 1 {
		fanout = 1
	}
	items := make([]common.Record, 0, n)
	if n == 0 {
		return items
	}
	items = append(items, common.Record{ID: common.IntID(0), Parent: common.StringID("root")})

	children := make([]int, n)
	for i := 1; i < n; i++ {
		parent := rng.Intn(i)
		for children[parent] >= fanout {
			parent = (parent + 1) % i
		}
		children[parent]++
		items = append(items, common.Record{ID: common.IntID(int64(i)), Parent: common.IntID(int64(parent))})
	}
	return items
}

func run(name string, n int, fn func() int) {
	total := 0
	start := time.Now()
	for i := 0; i < n; i++ {
		total += fn()
	}
	d := time.Since(start)
	fmt.Printf("   %-12s %v | %.0f ops/s | %d records returned\n", name, d, float64(n)/d.Seconds(), total)
}
