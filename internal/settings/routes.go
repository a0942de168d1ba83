package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", GetSettingsHandler)
	r.Put("/", PutSettingsHandler)

	return r
}
