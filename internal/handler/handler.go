// Package handler exposes the bakery services over HTTP.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/great-cookie/internal/domain/analytics"
	"github.com/xenking/great-cookie/internal/domain/cookie"
	"github.com/xenking/great-cookie/internal/domain/order"
	"github.com/xenking/great-cookie/internal/domain/review"
	"github.com/xenking/great-cookie/pkg/httpmiddleware"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative cookie image paths. When empty,
	// paths are returned as stored.
	ImageBaseURL string
	// Location renders dates of the daily sales series.
	Location *time.Location
}

// Services bundles the domain services served over HTTP.
type Services struct {
	Cookies   *cookie.Service
	Orders    *order.Service
	Reviews   *review.Service
	Analytics *analytics.Service
}

// Handler translates HTTP requests into service calls.
type Handler struct {
	cookies   *cookie.Service
	orders    *order.Service
	reviews   *review.Service
	analytics *analytics.Service

	imageBaseURL string
	loc          *time.Location
	now          func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config, s Services) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		cookies:      s.Cookies,
		orders:       s.Orders,
		reviews:      s.Reviews,
		analytics:    s.Analytics,
		imageBaseURL: strings.TrimSuffix(cfg.ImageBaseURL, "/"),
		loc:          loc,
		now:          time.Now,
	}
}

// Router builds the API routes under /api. Admin routes require a valid API
// key. Middlewares run inside the router so they can observe the matched
// route pattern.
func (h *Handler) Router(sec *SecurityHandler, middlewares ...httpmiddleware.Middleware) chi.Router {
	r := chi.NewRouter()
	for _, m := range middlewares {
		r.Use(m)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/cookies", h.ListCookies)
		r.Post("/orders", h.PlaceOrder)
		r.Get("/reviews", h.ListApprovedReviews)
		r.Post("/reviews", h.SubmitReview)

		r.Route("/admin", func(r chi.Router) {
			r.Use(sec.Middleware)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders/export", h.ExportOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Patch("/orders/{id}", h.UpdateOrder)

			r.Get("/analytics/revenue", h.RevenueSummary)
			r.Get("/stats", h.Stats)

			r.Get("/cookies", h.ListCookies)
			r.Post("/cookies", h.CreateCookie)
			r.Put("/cookies/{id}", h.UpdateCookie)
			r.Delete("/cookies/{id}", h.DeleteCookie)

			r.Get("/reviews", h.ListReviews)
			r.Put("/reviews/{id}/approve", h.ApproveReview)
			r.Delete("/reviews/{id}", h.DeleteReview)
		})
	})
	return r
}

// RoutePattern returns the chi route template that matched r.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimPrefix(path, "/")
}
