// Package notify delivers order events to external systems.
package notify

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/great-cookie/internal/domain/order"
)

// EncodeEvent renders e as the JSON document published to the event bus.
func EncodeEvent(e order.Event) []byte {
	var w jx.Encoder
	w.ObjStart()
	w.FieldStart("type")
	w.Str(string(e.Type))
	w.FieldStart("at")
	w.Str(e.At.UTC().Format(time.RFC3339Nano))
	if e.PreviousStatus != "" {
		w.FieldStart("previous_status")
		w.Str(string(e.PreviousStatus))
	}
	w.FieldStart("order")
	encodeOrder(&w, e.Order)
	w.ObjEnd()
	return w.Bytes()
}

func encodeOrder(w *jx.Encoder, o order.Order) {
	w.ObjStart()
	w.FieldStart("id")
	w.Int64(o.ID)
	w.FieldStart("customer_name")
	w.Str(o.CustomerName)
	w.FieldStart("contact")
	w.Str(o.Contact)
	w.FieldStart("cookie_name")
	w.Str(o.CookieName)
	w.FieldStart("quantity")
	w.Int(o.Quantity)
	w.FieldStart("total_price")
	if o.TotalPrice != nil {
		w.Raw([]byte(o.TotalPrice.StringFixed(2)))
	} else {
		w.Null()
	}
	optStr(w, "notes", o.Notes)
	optStr(w, "delivery_address", o.DeliveryAddress)
	optStr(w, "payment_method", o.PaymentMethod)
	optStr(w, "delivery_date", o.DeliveryDate)
	w.FieldStart("order_source")
	w.Str(string(o.Source))
	w.FieldStart("status")
	w.Str(string(o.Status))
	w.FieldStart("created_at")
	w.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	w.FieldStart("updated_at")
	w.Str(o.UpdatedAt.UTC().Format(time.RFC3339Nano))
	w.ObjEnd()
}

func optStr(w *jx.Encoder, name string, v *string) {
	w.FieldStart(name)
	if v == nil {
		w.Null()
		return
	}
	w.Str(*v)
}
