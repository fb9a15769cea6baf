package main

import (
	"log"

	"treestore/pkg/api"
	"treestore/pkg/config"
	"treestore/pkg/core"
	"treestore/pkg/monitor"
	"treestore/pkg/network"
	"treestore/pkg/storage"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.String("config", "", "Path to treestore.yaml (default: search configs/ and cwd)")
	importPath := flag.String("import", "", "JSON records file to load into the sqlite source before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[TreeStore] Failed to load config: %v", err)
	}

	if *importPath != "" {
		if cfg.Source.Kind != "sqlite" {
			log.Fatalf("[TreeStore] --import needs source.kind sqlite, got %q", cfg.Source.Kind)
		}
		dst, err := storage.NewSQLiteBackend(cfg.Source.Path, cfg.Source.Table)
		if err != nil {
			log.Fatalf("[TreeStore] Failed to open %s: %v", cfg.Source.Path, err)
		}
		n, err := storage.Import(dst, storage.NewJSONSource(*importPath))
		dst.Close()
		if err != nil {
			log.Fatalf("[TreeStore] Import of %s failed: %v", *importPath, err)
		}
		log.Printf("[TreeStore] Imported %d records from %s into %s.", n, *importPath, cfg.Source.Path)
	}

	src, err := storage.Open(cfg.Source)
	if err != nil {
		log.Fatalf("[TreeStore] Failed to open %s source: %v", cfg.Source.Kind, err)
	}
	records, err := src.LoadAll()
	src.Close()
	if err != nil {
		log.Fatalf("[TreeStore] Failed to load records from %s: %v", cfg.Source.Path, err)
	}

	store := core.New(records)
	log.Printf("[TreeStore] Indexed %d records (%d ids, %d roots) from %s source.",
		len(records), store.Size(), len(store.Roots()), cfg.Source.Kind)
	if err := store.Verify().Err(); err != nil {
		log.Printf("[TreeStore] Warning: input is not a well-formed tree: %v", err)
		if !cfg.Index.CycleGuard {
			log.Println("[TreeStore] Consider index.cycle_guard: true for this input.")
		}
	}

	registry := prometheus.NewRegistry()
	stats := monitor.NewWorkloadStats(registry)

	tcp := network.NewTCPServer(store, stats, cfg.Index.CycleGuard)
	go func() {
		if err := tcp.Start(cfg.Server.TCPAddr); err != nil {
			log.Fatalf("[TCP] %v", err)
		}
	}()

	srv := api.NewServer(store, stats, registry, cfg.Index.CycleGuard)
	log.Fatal(srv.Start(cfg.Server.Addr))
}
