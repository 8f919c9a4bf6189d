package storefront

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"RocketShoes/internal/cart"
	"RocketShoes/internal/notify"
	"RocketShoes/internal/session"
	"RocketShoes/pkg/kit"
)

type cartView struct {
	Items []cart.Entry `json:"items"`
	Total float64      `json:"total"`
	Count int          `json:"count"`
}

type mutationView struct {
	cartView
	Notifications []cart.Notification `json:"notifications"`
}

type updateBody struct {
	Amount *int `json:"amount"`
}

type Server struct {
	Carts *Registry
	Log   *zap.Logger
}

func (s *Server) Routes(limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/cart", s.getCart)

	r.Group(func(mr chi.Router) {
		if limit != nil {
			mr.Use(limit)
		}
		mr.Post("/cart/products/{id}", s.addProduct)
		mr.Delete("/cart/products/{id}", s.removeProduct)
		mr.Put("/cart/products/{id}", s.updateProductAmount)
	})

	return r
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	// A session issued by this very request has nothing stored yet.
	if session.IsNew(r.Context()) {
		kit.WriteJSON(w, http.StatusOK, cartView{Items: []cart.Entry{}})
		return
	}

	store, ok := s.store(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, view(store))
}

func (s *Server) addProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	ctx, col := notify.WithCollector(r.Context())
	store.AddProduct(ctx, id)
	writeMutation(w, store, col)
}

func (s *Server) removeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	ctx, col := notify.WithCollector(r.Context())
	store.RemoveProduct(ctx, id)
	writeMutation(w, store, col)
}

func (s *Server) updateProductAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var body updateBody
	if err := kit.DecodeJSON(w, r, &body); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if body.Amount == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "validation error", map[string]string{"amount": "required"})
		return
	}

	store, ok := s.store(w, r)
	if !ok {
		return
	}

	ctx, col := notify.WithCollector(r.Context())
	store.UpdateProductAmount(ctx, cart.UpdateAmount{ProductID: id, Amount: *body.Amount})
	writeMutation(w, store, col)
}

func (s *Server) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return nil, false
	}

	store, err := s.Carts.Store(r.Context(), sid)
	if err != nil {
		s.logger().Error("open cart failed", zap.String("session_id", sid), zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cart unavailable", nil)
		return nil, false
	}
	return store, true
}

func productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", map[string]string{"id": raw})
		return 0, false
	}
	return id, true
}

func view(store *cart.Store) cartView {
	items := store.Cart()
	return cartView{Items: items, Total: cart.Total(items), Count: len(items)}
}

func writeMutation(w http.ResponseWriter, store *cart.Store, col *notify.Collector) {
	kit.WriteJSON(w, http.StatusOK, mutationView{
		cartView:      view(store),
		Notifications: col.Notifications(),
	})
}
