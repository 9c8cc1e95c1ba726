package handler

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/amirasaad/paydesk/infra/initializer"
	"github.com/amirasaad/paydesk/pkg/app"
	"github.com/amirasaad/paydesk/pkg/config"
	"github.com/amirasaad/paydesk/webapi"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// build is shared by every invocation of a warm serverless instance.
var build = sync.OnceValues(func() (http.HandlerFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return nil, err
	}
	return adaptor.FiberApp(webapi.SetupApp(app.NewManager(deps))), nil
})

// Handler is the main entry point of the application.
// Think of it like the main() method
func Handler(w http.ResponseWriter, r *http.Request) {
	// This is needed to set the proper request path in `*fiber.Ctx`
	r.RequestURI = r.URL.String()

	h, err := build()
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		http.Error(w, "server misconfiguration", http.StatusInternalServerError)
		return
	}
	h.ServeHTTP(w, r)
}
