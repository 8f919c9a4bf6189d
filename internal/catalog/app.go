package catalog

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"RocketShoes/pkg/kit"
)

const (
	lookupProduct = "product"
	lookupStock   = "stock"
)

// lookupMetrics counts product and stock reads by outcome: hit, miss or
// error. A run of misses usually means the storefront holds stale ids.
type lookupMetrics struct {
	lookups *prometheus.CounterVec
}

func newLookupMetrics(reg prometheus.Registerer) *lookupMetrics {
	m := &lookupMetrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_lookups_total",
				Help: "Catalog product and stock lookups by outcome",
			},
			[]string{"kind", "result"},
		),
	}
	reg.MustRegister(m.lookups)
	return m
}

func (m *lookupMetrics) observe(kind string, found bool, err error) {
	if m == nil {
		return
	}
	result := "hit"
	switch {
	case err != nil:
		result = "error"
	case !found:
		result = "miss"
	}
	m.lookups.WithLabelValues(kind, result).Inc()
}

// NewHandler serves the catalog API on the shared service router.
func NewHandler(s *Server, deps kit.HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Log
	}
	if deps.Registry != nil {
		s.lookups = newLookupMetrics(deps.Registry)
	}

	r := kit.NewRouter(deps)
	r.Mount("/", s.Routes())
	return r
}
