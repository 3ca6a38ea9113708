package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Vitrine/internal/catalog"
	"Vitrine/pkg/kit"
)

const (
	maxBodyBytes = 4 << 20

	tokenTTL = 1 * time.Hour

	loginLimitPerMin = 5
	limitWindowSecs  = 60
)

// Server is the catalog editing surface. One password, one role; the spec
// for this store never grows past a single admin.
type Server struct {
	Log          *zap.Logger
	Cache        *catalog.Cache
	Sink         Sink
	JWT          *TokenMaker
	PasswordHash []byte
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindowSecs)
	r.With(loginLimiter.Middleware).Post("/login", s.handleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(RequireToken(s.JWT))
		pr.Get("/products", s.handleList)
		pr.Put("/products", s.handleReplace)
		pr.Get("/products/export", s.handleExport)
	})

	return r
}

type loginReq struct {
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	pw := strings.TrimSpace(req.Password)
	if pw == "" || len(s.PasswordHash) == 0 {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pw)); err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := s.JWT.New(tokenTTL)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok})
}

// handleList returns the full catalog, inactive records included. The
// end-user API never sees those; the admin edits them.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := s.Cache.Products(r.Context(), catalog.Options{})
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("catalog unavailable", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

type replaceResp struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// handleReplace accepts a full replacement catalog, writes it through the
// sink and drops the cached products so the storefront serves the new
// file. Validation is lenient: bad prices already coerced to zero by the
// decoder, missing ids are generated.
func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	var products []catalog.Product
	if err := decodeBody(w, r, &products); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	for i := range products {
		if strings.TrimSpace(products[i].ID) == "" {
			products[i].ID = "p_" + uuid.NewString()
		}
	}

	if err := s.Sink.Write(r.Context(), products); err != nil {
		if s.Log != nil {
			s.Log.Error("catalog write failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to update products", nil)
		return
	}

	s.Cache.Invalidate(catalog.PathProducts)

	kit.WriteJSON(w, http.StatusOK, replaceResp{
		Message: "products updated",
		Count:   len(products),
	})
}

// handleExport downloads the current catalog as a file, for manual
// replacement of the source JSON where no writable sink exists.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	products, err := s.Cache.Products(r.Context(), catalog.Options{})
	if err != nil {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}

	b, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="products.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json value")
	}
	return nil
}
