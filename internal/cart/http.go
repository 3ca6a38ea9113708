package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Vitrine/internal/checkout"
	"Vitrine/pkg/kit"
)

const maxBodyBytes = 1 << 16

// ProductFinder resolves an active catalog product for the add operation.
type ProductFinder interface {
	Find(ctx context.Context, id string) (Product, bool, error)
}

// SettingsSource supplies the checkout message settings.
type SettingsSource interface {
	CheckoutSettings(ctx context.Context) (checkout.Settings, error)
}

// Server is the HTTP view over the session cart stores.
type Server struct {
	Carts    *Registry
	Products ProductFinder
	Settings SettingsSource
	Log      *zap.Logger
}

type view struct {
	Items  []Item  `json:"items"`
	IsOpen bool    `json:"is_open"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
}

func snapshot(s *Store) view {
	return view{
		Items:  s.Items(),
		IsOpen: s.IsOpen(),
		Count:  s.Count(),
		Total:  s.Total(),
	}
}

func (s *Server) store(r *http.Request) (*Store, bool) {
	session, ok := SessionFromContext(r.Context())
	if !ok || session == "" {
		return nil, false
	}
	return s.Carts.Get(session), true
}

func (s *Server) Show(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "no session", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, snapshot(store))
}

type addReq struct {
	ProductID string `json:"product_id"`
}

func (s *Server) AddItem(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "no session", nil)
		return
	}

	var req addReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	pid := strings.TrimSpace(req.ProductID)
	if pid == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	p, found, err := s.Products.Find(r.Context(), pid)
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("product lookup failed", zap.Error(err), zap.String("product_id", pid))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product_id", map[string]any{"id": pid})
		return
	}

	store.Add(p)
	kit.WriteJSON(w, http.StatusOK, snapshot(store))
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "no session", nil)
		return
	}

	var req quantityReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	store.SetQuantity(chi.URLParam(r, "id"), req.Quantity)
	kit.WriteJSON(w, http.StatusOK, snapshot(store))
}

func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "no session", nil)
		return
	}

	store.Remove(chi.URLParam(r, "id"))
	kit.WriteJSON(w, http.StatusOK, snapshot(store))
}

func (s *Server) OpenCart(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "no session", nil)
		return
	}
	store.Open()
	kit.WriteJSON(w, http.StatusOK, snapshot(store))
}

func (s *Server) CloseCart(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "no session", nil)
		return
	}
	store.Close()
	kit.WriteJSON(w, http.StatusOK, snapshot(store))
}

type checkoutResp struct {
	Link string `json:"link"`
}

// Checkout builds the outbound WhatsApp link for the session cart. The link
// is handed back to the client; nothing is awaited from the other side.
func (s *Server) Checkout(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "no session", nil)
		return
	}

	settings, err := s.Settings.CheckoutSettings(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("settings unavailable", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "settings unavailable", nil)
		return
	}

	items := store.Items()
	lines := make([]checkout.Line, len(items))
	for i, it := range items {
		lines[i] = checkout.Line{Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}

	link, err := checkout.Link(lines, settings)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
			return
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, checkoutResp{Link: link})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
