// Package debugserver exposes an optional HTTP surface for observing a
// running pipeline: liveness, per-stage status, and Prometheus
// metrics. It mirrors the way Chapter10/linksrus/service/frontend
// wires gorilla/mux handlers and Chapter13/prom_http serves
// promhttp.Handler, adapted to a single-process CLI instead of a
// clustered service.
package debugserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corelane/strpipe/internal/metrics"
	"github.com/corelane/strpipe/pipeline"
)

// stageStatus is the /stages JSON shape for one stage instance.
type stageStatus struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Placed   uint64 `json:"placed"`
	Released uint64 `json:"released"`
	Queued   int    `json:"queued"`
}

// New builds the debug HTTP handler for p, backed by collectors for
// the /metrics route.
func New(p *pipeline.Pipeline, collectors *metrics.Collectors) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/stages", func(w http.ResponseWriter, _ *http.Request) {
		statuses := make([]stageStatus, 0, len(p.Stages()))
		for _, st := range p.Stages() {
			placed, released := st.Stats()
			statuses = append(statuses, stageStatus{
				Name:     st.Name(),
				ID:       st.ID().String(),
				Placed:   placed,
				Released: released,
				Queued:   st.QueueLen(),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statuses)
	}).Methods(http.MethodGet)

	r.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		collectors.Sample(p.Stages())
		promhttp.HandlerFor(collectors.Registry, promhttp.HandlerOpts{}).ServeHTTP(w, req)
	})).Methods(http.MethodGet)

	return r
}
