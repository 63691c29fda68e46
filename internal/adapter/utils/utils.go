package utils

import (
	"net/http"

	_ "github.com/akolanti/docqa/cmd/api/docs"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/http-swagger"
)

func GetNewUUID() string {
	return uuid.New().String()
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// NewRouter returns a chi router with swagger and prometheus mounted.
func NewRouter() *chi.Mux {
	router := chi.NewRouter()
	InitSwagger(router)
	router.Handle("/metrics", promhttp.Handler())
	return router
}

func InitSwagger(r chi.Router) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
