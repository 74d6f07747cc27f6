// Package api wires HTTP routes to handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/middleware"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/config"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// Services bundles the service layer the router exposes.
type Services struct {
	System      *service.SystemService
	User        *service.UserService
	Position    *service.PositionService
	Transaction *service.TransactionService
	Tax         *service.TaxService
	Report      *service.ReportService
	Dashboard   *service.DashboardService
	Sweep       *service.SweepService
}

// NewRouter creates and configures the HTTP router. When artifactDir is set,
// locally stored documents are served under /artifacts/.
func NewRouter(svc Services, cfg *config.Config, artifactDir string, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/internal", func(r chi.Router) {
			r.Use(custommiddleware.APIKeyMiddleware)
			internalHandler := handlers.NewInternalHandler(svc.Sweep)
			r.Post("/sweep", internalHandler.Sweep)
		})

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireUserID)

			r.Route("/user", func(r chi.Router) {
				userHandler := handlers.NewUserHandler(svc.User)
				r.Get("/profile", userHandler.GetProfile)
				r.Put("/profile", userHandler.UpdateProfile)
			})

			r.Route("/asset", func(r chi.Router) {
				assetHandler := handlers.NewAssetHandler(svc.Position)
				r.Get("/", assetHandler.Assets)
				r.With(custommiddleware.ValidateUUIDMiddleware).Get("/{uuid}", assetHandler.GetAsset)
			})

			r.Route("/transaction", func(r chi.Router) {
				transactionHandler := handlers.NewTransactionHandler(svc.Transaction)
				r.Get("/", transactionHandler.Transactions)
				r.Post("/", transactionHandler.CreateTransaction)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Get("/", transactionHandler.GetTransaction)
					r.Put("/", transactionHandler.UpdateTransaction)
					r.Delete("/", transactionHandler.DeleteTransaction)
				})
			})

			r.Route("/tax", func(r chi.Router) {
				taxHandler := handlers.NewTaxHandler(svc.Tax)
				r.Get("/results", taxHandler.Results)
				r.Get("/results/export", taxHandler.Export)
				r.Post("/recompute", taxHandler.Recompute)
			})

			r.Route("/report", func(r chi.Router) {
				reportHandler := handlers.NewReportHandler(svc.Report)
				r.Get("/", reportHandler.Documents)
				r.Get("/{scope}", reportHandler.GetDocument)
				r.Post("/{scope}", reportHandler.Generate)
			})

			dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
			r.Get("/dashboard", dashboardHandler.Summary)
		})
	})

	if artifactDir != "" {
		r.Handle("/artifacts/*", http.StripPrefix("/artifacts", http.FileServer(http.Dir(artifactDir))))
	}

	return r
}
