package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the HTTP API. All routes live under /api/v1.
func NewRouter(drinks *DrinkServer, statistics *StatsServer) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/drinks", func(r chi.Router) {
			r.Get("/", drinks.ListDrinks)
			r.Post("/", drinks.AddDrink)
			r.Get("/{id}", drinks.GetDrink)
			r.Patch("/{id}", drinks.UpdateDrink)
			r.Delete("/{id}", drinks.DeleteDrink)
		})

		api.Route("/categories", func(r chi.Router) {
			r.Get("/", drinks.ListCategories)
			r.Post("/", drinks.AddCategory)
			r.Delete("/{id}", drinks.DeleteCategory)
		})

		api.Route("/settings", func(r chi.Router) {
			r.Get("/", drinks.GetSettings)
			r.Put("/", drinks.PutSetting)
		})

		api.Route("/stats", func(r chi.Router) {
			r.Get("/", statistics.GeneralStats)
			r.Get("/comparison", statistics.Comparison)
			r.Get("/sessions", statistics.Sessions)
			r.Get("/bac", statistics.BAC)
			r.Get("/bac/trajectory", statistics.BACTrajectory)
			r.Get("/locations", statistics.Locations)
		})

		api.Get("/lookup/barcode/{code}", drinks.LookupBarcode)
		api.Get("/lookup/drink", drinks.FindDrink)
	})

	return router
}
