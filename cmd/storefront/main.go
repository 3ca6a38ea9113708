package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Vitrine/internal/admin"
	"Vitrine/internal/cart"
	"Vitrine/internal/catalog"
	"Vitrine/internal/config"
	"Vitrine/internal/storefront"
	"Vitrine/pkg/kit"
)

func main() {
	service := "storefront"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	var src catalog.Source
	if cfg.DataURL != "" {
		src = catalog.NewHTTPSource(cfg.DataURL)
	} else {
		src = catalog.NewDirSource(cfg.DataDir)
	}

	deps := storefront.Deps{
		Cfg:   cfg,
		Cache: catalog.NewCache(src, log),
		Carts: cart.NewRegistry(),
		Sink:  admin.NewFileSink(cfg.ProductsFile),
	}

	reg := prometheus.NewRegistry()
	h := storefront.NewHandler(deps, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(cfg.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
