package api

import (
	"net/http"

	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		routes.Mount(
			cfg.API.BasePath,
			domain.Files.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		),
	)
}
