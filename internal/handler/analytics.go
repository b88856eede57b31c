package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

const dateLayout = "2006-01-02"

// RevenueSummary serves the revenue dashboard.
func (h *Handler) RevenueSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.analytics.RevenueSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("total_revenue")
		encodeMoney(e, s.TotalRevenue)
		e.FieldStart("average_order_value")
		encodeMoney(e, s.AverageOrderValue)
		e.FieldStart("monthly_revenue")
		encodeMoney(e, s.MonthlyRevenue)
		e.FieldStart("monthly_orders")
		e.Int(s.MonthlyOrders)
		e.FieldStart("total_orders")
		e.Int(s.TotalOrders)
		e.FieldStart("priced_orders")
		e.Int(s.PricedOrders)

		e.FieldStart("best_sellers")
		e.ArrStart()
		for _, bs := range s.BestSellers {
			e.ObjStart()
			e.FieldStart("cookie_name")
			e.Str(bs.CookieName)
			e.FieldStart("total_sold")
			e.Int(bs.TotalSold)
			e.FieldStart("revenue")
			encodeMoney(e, bs.Revenue)
			e.ObjEnd()
		}
		e.ArrEnd()

		e.FieldStart("daily_sales")
		e.ArrStart()
		for _, d := range s.DailySales {
			e.ObjStart()
			e.FieldStart("date")
			e.Str(d.Date.Format(dateLayout))
			e.FieldStart("revenue")
			encodeMoney(e, d.Revenue)
			e.FieldStart("order_count")
			e.Int(d.OrderCount)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// Stats serves the dashboard counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.analytics.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("total_cookies")
		e.Int(st.TotalCookies)
		e.FieldStart("total_orders")
		e.Int(st.TotalOrders)
		e.FieldStart("pending_orders")
		e.Int(st.PendingOrders)
		e.FieldStart("completed_orders")
		e.Int(st.CompletedOrders)
		e.FieldStart("total_reviews")
		e.Int(st.TotalReviews)
		e.FieldStart("pending_reviews")
		e.Int(st.PendingReviews)
		e.ObjEnd()
	})
}
