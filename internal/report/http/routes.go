package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the sales report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales/weekly", h.Weekly)
	r.Get("/sales/monthly", h.Monthly)
	r.Get("/sales/quarterly", h.Quarterly)
}
