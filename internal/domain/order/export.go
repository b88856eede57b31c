package order

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/go-faster/errors"
)

// ExportTimeLayout is the timestamp format of the Order Date column.
const ExportTimeLayout = "2006-01-02 15:04:05"

// ExportHeader is the header row of an order export.
var ExportHeader = []string{
	"Order ID", "Customer Name", "Contact", "Cookie", "Quantity",
	"Total Price", "Payment Method", "Delivery Address", "Status",
	"Order Date", "Delivery Date", "Notes",
}

// Export writes orders as CSV to w in creation order. When status is set
// only orders in that status are written.
func (s *Service) Export(ctx context.Context, w io.Writer, status *Status) error {
	orders, err := s.List(ctx, Filter{Status: status})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i := range orders {
		if err := cw.Write(s.exportRow(&orders[i])); err != nil {
			return errors.Wrapf(err, "write order %d", orders[i].ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush export")
}

func (s *Service) exportRow(o *Order) []string {
	total := ""
	if o.TotalPrice != nil {
		total = o.TotalPrice.StringFixed(2)
	}
	return []string{
		strconv.FormatInt(o.ID, 10),
		o.CustomerName,
		o.Contact,
		o.CookieName,
		strconv.Itoa(o.Quantity),
		total,
		deref(o.PaymentMethod),
		deref(o.DeliveryAddress),
		string(o.Status),
		o.CreatedAt.In(s.loc).Format(ExportTimeLayout),
		deref(o.DeliveryDate),
		deref(o.Notes),
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
