package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"treestore/pkg/common"
	"treestore/pkg/core"
	"treestore/pkg/monitor"
	"treestore/pkg/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	store      *core.TreeStore
	stats      *monitor.WorkloadStats
	cycleGuard bool
	mux        *http.ServeMux
}

// NewServer wires the query handlers. The registry collects the query
// counters shared with the TCP front end; pass the same stats to both. With a
// nil registry a private one is created and stats are registered on it.
func NewServer(store *core.TreeStore, stats *monitor.WorkloadStats, registry *prometheus.Registry, cycleGuard bool) *Server {
	switch {
	case stats == nil:
		if registry == nil {
			registry = prometheus.NewRegistry()
		}
		stats = monitor.NewWorkloadStats(registry)
	case registry == nil:
		registry = prometheus.NewRegistry()
		stats.MustRegister(registry)
	}
	s := &Server{
		store:      store,
		stats:      stats,
		cycleGuard: cycleGuard,
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/all", s.handleAll)
	s.mux.HandleFunc("/api/get", s.handleGet)
	s.mux.HandleFunc("/api/children", s.handleChildren)
	s.mux.HandleFunc("/api/descendants", s.handleDescendants)
	s.mux.HandleFunc("/api/ancestors", s.handleAncestors)
	s.mux.HandleFunc("/api/roots", s.handleRoots)
	s.mux.HandleFunc("/api/range", s.handleRange)
	s.mux.HandleFunc("/api/query", s.handleQuery)
	s.mux.HandleFunc("/api/verify", s.handleVerify)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(addr string) error {
	log.Printf("[API] Server listening on %s...", addr)
	return http.ListenAndServe(addr, s.mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// idParam reads an identifier from the query string. "kind" may force
// "int" or "string"; otherwise integer syntax means an integer id.
func idParam(r *http.Request, name string) (common.Identifier, error) {
	q := r.URL.Query()
	return common.ParseIdentifier(q.Get(name), q.Get("kind"))
}

func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordRead("all")
	all := s.store.All()
	if all == nil {
		all = []common.Record{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.stats.RecordRead("get")
	rec, ok := s.store.Get(id)
	if !ok {
		s.stats.RecordMiss()
		writeJSON(w, http.StatusNotFound, map[string]any{"id": id, "found": false})
		return
	}
	s.stats.RecordHit()
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	s.handleTraversal(w, r, "children", func(id common.Identifier) ([]*common.Record, error) {
		return s.store.Children(id), nil
	})
}

func (s *Server) handleDescendants(w http.ResponseWriter, r *http.Request) {
	s.handleTraversal(w, r, "descendants", func(id common.Identifier) ([]*common.Record, error) {
		if s.cycleGuard {
			return s.store.DescendantsChecked(id)
		}
		return s.store.Descendants(id), nil
	})
}

func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	s.handleTraversal(w, r, "ancestors", func(id common.Identifier) ([]*common.Record, error) {
		if s.cycleGuard {
			return s.store.AncestorsChecked(id)
		}
		return s.store.Ancestors(id), nil
	})
}

func (s *Server) handleTraversal(w http.ResponseWriter, r *http.Request, op string, fn func(common.Identifier) ([]*common.Record, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.stats.RecordRead(op)
	records, err := fn(id)
	if errors.Is(err, core.ErrCycle) {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordRead("roots")
	writeJSON(w, http.StatusOK, s.store.Roots())
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	start, err := idParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	end, err := idParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.stats.RecordRead("range")
	writeJSON(w, http.StatusOK, s.store.Range(start, end))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	stmt, err := sql.Parse(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.stats.RecordRead("query")
	records, err := stmt.Execute(s.store, s.cycleGuard)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var sentinels []common.Identifier
	if r.URL.Query().Has("sentinel") {
		id, err := idParam(r, "sentinel")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		sentinels = append(sentinels, id)
	}

	rep := s.store.Verify(sentinels...)
	resp := map[string]any{
		"ok":         rep.OK(),
		"duplicates": len(rep.Duplicates),
		"dangling":   len(rep.Dangling),
		"self_refs":  len(rep.SelfRefs),
		"cycles":     len(rep.Cycles),
	}
	if err := rep.Err(); err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"record_count": len(s.store.All()),
		"id_count":     s.store.Size(),
		"root_count":   len(s.store.Roots()),
		"index_type":   s.store.Type(),
		"cycle_guard":  s.cycleGuard,
		"reads":        s.stats.Reads(),
		"hit_ratio":    s.stats.GetHitRatio(),
	})
}
