package coverage

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/sites", ListSitesHandler)
	r.Get("/nearest", NearestHandler)
	r.Post("/sites", CreateSiteHandler)
	r.Put("/sites/{id}", UpdateSiteHandler)
	r.Delete("/sites/{id}", DeleteSiteHandler)
	r.Post("/sites/bulk-delete", BulkDeleteHandler)
	r.Delete("/sites", DeleteAllHandler)
	r.Post("/sites/bulk", BulkImportHandler)
	r.Post("/import", ImportPreviewHandler)

	return r
}
