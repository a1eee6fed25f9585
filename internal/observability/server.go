package observability

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider is implemented by any component the debug server reports
// on: cache, route index, lookup-table cache.
type StatsProvider interface {
	Stats() any
}

// NewServer builds the debug HTTP mux the cmd/arbengine CLI's `routes list`
// and `cache stats` subcommands talk to, grounded on cmd/dexserver's plain
// http.HandleFunc wiring but routed through go-chi/chi/v5 the way the rest
// of the pack's servers do.
func NewServer(cacheStats, routeIndexStats, lookupTableStats func() any) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/debug/cache", jsonHandler(cacheStats))
	r.Get("/debug/routes", jsonHandler(routeIndexStats))
	r.Get("/debug/lookuptable", jsonHandler(lookupTableStats))
	return r
}

func jsonHandler(statsFunc func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(statsFunc()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
