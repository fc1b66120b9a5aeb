// Package api assembles the HTTP API from the domain systems.
package api

import (
	"net/http"

	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/internal/infrastructure"
	"github.com/JaimeStill/intake/pkg/middleware"
)

// NewHandler creates the API handler with all domain routes mounted under
// cfg.API.BasePath and the standard middleware stack applied.
func NewHandler(cfg *config.Config, infra *infrastructure.Infrastructure) http.Handler {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	stack := middleware.New(
		middleware.Recover(runtime.Logger),
		middleware.Logger(runtime.Logger),
		middleware.CORS(&cfg.API.CORS),
	)
	return stack.Apply(mux)
}
