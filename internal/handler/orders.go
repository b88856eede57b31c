package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/xenking/great-cookie/internal/domain/order"
)

const exportFileLayout = "20060102_150405"

// PlaceOrder accepts a storefront order. Any total_price in the body is
// ignored; the total is always computed from the catalog.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var (
		in       orderBody
		customer OptString
		contact  OptString
		source   OptString
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "customer_name":
			return customer.Decode(d)
		case "contact":
			return contact.Decode(d)
		case "order_source":
			return source.Decode(d)
		default:
			return in.decodeField(d, key)
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.Create(r.Context(), order.Draft{
		CustomerName:    customer.Value,
		Contact:         contact.Value,
		CookieName:      in.CookieName.Value,
		Quantity:        in.Quantity.Value,
		Notes:           in.Notes.Ptr(),
		DeliveryAddress: in.DeliveryAddress.Ptr(),
		PaymentMethod:   in.PaymentMethod.Ptr(),
		DeliveryDate:    in.DeliveryDate.Ptr(),
		Source:          order.Source(source.Value),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// ListOrders returns orders newest first, optionally filtered by ?status=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), order.Filter{
		Status: queryStatus(r),
		Newest: true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

// GetOrder returns a single order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// UpdateOrder applies the detail and status changes the body carries in one
// write. A rejected status leaves the details untouched.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var (
		in     orderBody
		status OptString
	)
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		if key == "status" {
			return status.Decode(d)
		}
		return in.decodeField(d, key)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	patch := order.DetailsPatch{
		CookieName:      in.CookieName.Ptr(),
		Quantity:        in.Quantity.Ptr(),
		Notes:           in.Notes.Ptr(),
		DeliveryAddress: in.DeliveryAddress.Ptr(),
		PaymentMethod:   in.PaymentMethod.Ptr(),
		DeliveryDate:    in.DeliveryDate.Ptr(),
	}
	hasDetails := in.CookieName.Set || in.Quantity.Set || in.Notes.Set ||
		in.DeliveryAddress.Set || in.PaymentMethod.Set || in.DeliveryDate.Set
	if !hasDetails && !status.Set {
		writeError(w, r, badRequest("nothing to update"))
		return
	}

	change := order.Change{Details: patch}
	if status.Set {
		st := order.Status(status.Value)
		change.Status = &st
	}
	o, err := h.orders.Update(r.Context(), id, change)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// ExportOrders streams orders as CSV, gzip compressed when the client
// accepts it.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	gzipped := acceptsGzip(r)

	if gzipped {
		zw := pgzip.NewWriter(&buf)
		if err := h.orders.Export(r.Context(), zw, queryStatus(r)); err != nil {
			writeError(w, r, err)
			return
		}
		if err := zw.Close(); err != nil {
			writeError(w, r, err)
			return
		}
	} else if err := h.orders.Export(r.Context(), &buf, queryStatus(r)); err != nil {
		writeError(w, r, err)
		return
	}

	name := fmt.Sprintf("orders_export_%s.csv", h.now().In(h.loc).Format(exportFileLayout))
	hdr := w.Header()
	hdr.Set("Content-Type", "text/csv; charset=utf-8")
	hdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	hdr.Add("Vary", "Accept-Encoding")
	if gzipped {
		hdr.Set("Content-Encoding", "gzip")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type orderBody struct {
	CookieName      OptString
	Quantity        OptInt
	Notes           OptNilString
	DeliveryAddress OptNilString
	PaymentMethod   OptNilString
	DeliveryDate    OptNilString
}

func (b *orderBody) decodeField(d *jx.Decoder, key string) error {
	switch key {
	case "cookie_name":
		return b.CookieName.Decode(d)
	case "quantity":
		return b.Quantity.Decode(d)
	case "notes":
		return b.Notes.Decode(d)
	case "delivery_address":
		return b.DeliveryAddress.Decode(d)
	case "payment_method":
		return b.PaymentMethod.Decode(d)
	case "delivery_date":
		return b.DeliveryDate.Decode(d)
	default:
		return d.Skip()
	}
}

func queryStatus(r *http.Request) *order.Status {
	v := strings.TrimSpace(r.URL.Query().Get("status"))
	if v == "" || v == "all" {
		return nil
	}
	s := order.Status(v)
	return &s
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") && strings.TrimSpace(params) != "q=0" {
			return true
		}
	}
	return false
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("customer_name")
	e.Str(o.CustomerName)
	e.FieldStart("contact")
	e.Str(o.Contact)
	e.FieldStart("cookie_name")
	e.Str(o.CookieName)
	e.FieldStart("quantity")
	e.Int(o.Quantity)
	e.FieldStart("notes")
	encodeNilString(e, o.Notes)
	e.FieldStart("delivery_address")
	encodeNilString(e, o.DeliveryAddress)
	e.FieldStart("total_price")
	if o.TotalPrice != nil {
		encodeMoney(e, *o.TotalPrice)
	} else {
		e.Null()
	}
	e.FieldStart("payment_method")
	encodeNilString(e, o.PaymentMethod)
	e.FieldStart("delivery_date")
	encodeNilString(e, o.DeliveryDate)
	e.FieldStart("order_source")
	e.Str(string(o.Source))
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("created_at")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, o.UpdatedAt)
	e.ObjEnd()
}
