package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Vitrine/internal/admin"
	"Vitrine/internal/cart"
	"Vitrine/internal/catalog"
	"Vitrine/internal/checkout"
	"Vitrine/internal/config"
	"Vitrine/pkg/kit"
)

const readyTimeout = 2 * time.Second

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Cfg   config.Config
	Cache *catalog.Cache
	Carts *cart.Registry
	Sink  admin.Sink
}

// NewHandler assembles the whole storefront route tree: catalog reads,
// session carts, checkout, admin editing, static data files.
func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Cache, httpDeps.Log))

	catalogSrv := &catalog.Server{Cache: deps.Cache, Log: httpDeps.Log}
	cartSrv := &cart.Server{
		Carts:    deps.Carts,
		Products: catalogFinder{deps.Cache},
		Settings: settingsSource{deps.Cache},
		Log:      httpDeps.Log,
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/products", catalogSrv.ListProducts)
		api.Get("/products/{id}", catalogSrv.GetProduct)
		api.Get("/categories", catalogSrv.ListCategories)
		api.Get("/settings", catalogSrv.GetSettings)
		api.Get("/socials", catalogSrv.ListSocials)

		api.Group(func(cr chi.Router) {
			cr.Use(cart.Session)

			cr.Get("/cart", cartSrv.Show)
			cr.Post("/cart/items", cartSrv.AddItem)
			cr.Put("/cart/items/{id}", cartSrv.UpdateItem)
			cr.Delete("/cart/items/{id}", cartSrv.RemoveItem)
			cr.Post("/cart/open", cartSrv.OpenCart)
			cr.Post("/cart/close", cartSrv.CloseCart)

			cr.Post("/checkout", cartSrv.Checkout)
		})
	})

	if deps.Cfg.AdminEnabled() {
		adminSrv := &admin.Server{
			Log:          httpDeps.Log,
			Cache:        deps.Cache,
			Sink:         deps.Sink,
			JWT:          admin.NewTokenMaker(deps.Cfg.JWTSecret),
			PasswordHash: []byte(deps.Cfg.AdminPasswordHash),
		}
		r.Mount("/admin", adminSrv.Routes())
	}

	if deps.Cfg.DataDir != "" {
		fs := http.FileServer(http.Dir(deps.Cfg.DataDir))
		r.Handle("/data/*", fs)
	}

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(cache *catalog.Cache, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := cache.Ready(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// catalogFinder adapts the cache to the cart's product lookup boundary.
type catalogFinder struct {
	cache *catalog.Cache
}

func (f catalogFinder) Find(ctx context.Context, id string) (cart.Product, bool, error) {
	p, ok, err := f.cache.Product(ctx, id)
	if err != nil || !ok {
		return cart.Product{}, ok, err
	}
	return cart.Product{
		ID:    p.ID,
		Name:  p.Name,
		Price: float64(p.Price),
		Image: p.Image,
	}, true, nil
}

type settingsSource struct {
	cache *catalog.Cache
}

func (s settingsSource) CheckoutSettings(ctx context.Context) (checkout.Settings, error) {
	st, err := s.cache.Settings(ctx)
	if err != nil {
		return checkout.Settings{}, err
	}
	return checkout.Settings{
		WhatsappNumber:  st.WhatsappNumber,
		MessageTemplate: st.WhatsappMessageTemplate,
		CurrencySymbol:  st.CurrencySymbol,
	}, nil
}
