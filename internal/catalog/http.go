package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Vitrine/pkg/kit"
)

// Server exposes the read-only storefront views over the cache. Handlers
// are plain methods so the application router composes the tree.
type Server struct {
	Cache *Cache
	Log   *zap.Logger
}

type productDetail struct {
	Product
	DescriptionHTML string `json:"description_html,omitempty"`
}

func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Cache.Products(r.Context(), Options{ActiveOnly: true})
	if err != nil {
		s.unavailable(w, r, err)
		return
	}

	if cat := r.URL.Query().Get("category"); cat != "" {
		filtered := make([]Product, 0, len(products))
		for _, p := range products {
			if p.Category == cat {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	if r.URL.Query().Get("new") == "true" {
		filtered := make([]Product, 0, len(products))
		for _, p := range products {
			if p.IsNew {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok, err := s.Cache.Product(r.Context(), id)
	if err != nil {
		s.unavailable(w, r, err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	kit.WriteJSON(w, http.StatusOK, productDetail{
		Product:         p,
		DescriptionHTML: RenderDescription(p.Description),
	})
}

func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Cache.Categories(r.Context())
	if err != nil {
		s.unavailable(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, categories)
}

func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.Cache.Settings(r.Context())
	if err != nil {
		s.unavailable(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, settings)
}

func (s *Server) ListSocials(w http.ResponseWriter, r *http.Request) {
	socials, err := s.Cache.Socials(r.Context())
	if err != nil {
		s.unavailable(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, socials)
}

func (s *Server) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	if s.Log != nil {
		s.Log.Warn("catalog unavailable", zap.Error(err), zap.String("path", r.URL.Path))
	}
	kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
}
