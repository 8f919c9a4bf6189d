// Package storefront serves the shopping cart API, one cart per browser
// session.
package storefront

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"RocketShoes/internal/cart"
	"RocketShoes/internal/events"
	"RocketShoes/internal/notify"
	"RocketShoes/internal/session"
	"RocketShoes/pkg/kit"
)

// Upstream is the catalog and stock API the carts read from.
type Upstream interface {
	cart.Catalog
	cart.Inventory
	Ready(ctx context.Context) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Upstream  Upstream
	Slot      cart.Slot
	KeyPrefix string
	Sessions  *session.TokenMaker
	Publisher events.Publisher

	// RateLimitPerMin caps cart mutations per session; 0 disables the limit.
	RateLimitPerMin int

	// CartIdleTTL and MaxOpenCarts bound the carts held in memory.
	CartIdleTTL  time.Duration
	MaxOpenCarts int
}

const readyTimeout = 2 * time.Second

// App is the assembled storefront. Close releases the per-session carts.
type App struct {
	Handler http.Handler
	Carts   *Registry
}

func (a *App) Close() { a.Carts.Close() }

// Run evicts idle carts until ctx is done.
func (a *App) Run(ctx context.Context) { a.Carts.Run(ctx) }

func New(deps Deps, httpDeps kit.HTTPDeps) (*App, error) {
	if deps.Upstream == nil || deps.Slot == nil || deps.Sessions == nil {
		return nil, errors.New("storefront: upstream, slot and sessions are required")
	}
	log := httpDeps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := kit.NewRouter(httpDeps)

	sinks := notify.Fanout{notify.Request(), notify.Log(log)}
	var cartMetrics cart.Metrics
	if httpDeps.Registry != nil {
		ops := kit.NewOpMetrics(httpDeps.Registry)
		sinks = append(sinks, notify.Count(ops))
		cartMetrics = ops
	}

	carts := NewRegistry(RegistryConfig{
		Catalog:   deps.Upstream,
		Inventory: deps.Upstream,
		Slot:      deps.Slot,
		KeyPrefix: deps.KeyPrefix,
		Notifier:  sinks,
		Metrics:   cartMetrics,
		Publisher: deps.Publisher,
		Log:       log,
		IdleTTL:   deps.CartIdleTTL,
		MaxOpen:   deps.MaxOpenCarts,
	})
	srv := &Server{Carts: carts, Log: log}

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, log))

	var limit func(http.Handler) http.Handler
	if deps.RateLimitPerMin > 0 {
		limit = kit.NewRateLimiter(deps.RateLimitPerMin, time.Minute, sessionOrIP).Middleware
	}

	r.Group(func(sr chi.Router) {
		sr.Use(session.Middleware(deps.Sessions, log))
		sr.Mount("/", srv.Routes(limit))
	})

	return &App{
		Handler: otelhttp.NewHandler(r, httpDeps.Service),
		Carts:   carts,
	}, nil
}

func sessionOrIP(r *http.Request) string {
	if sid, ok := session.IDFromContext(r.Context()); ok {
		return "session:" + sid
	}
	return "ip:" + kit.ClientIP(r)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := deps.Upstream.Ready(ctx); err != nil {
			log.Warn("readyz failed: catalog", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
			return
		}

		if p, ok := deps.Slot.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				log.Warn("readyz failed: slot", zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, "cart storage not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
