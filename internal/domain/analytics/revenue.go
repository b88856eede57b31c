// Package analytics derives dashboard figures from the order collection.
//
// Money figures only consider priced orders (orders whose total was
// resolved from the catalog). Counts consider every order. The average order
// value therefore divides priced revenue by the number of priced orders.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/order"
)

const (
	// DailyWindow is the number of calendar days in the sales series.
	DailyWindow = 7
	// DefaultBestSellers is how many cookies the ranking keeps.
	DefaultBestSellers = 5
)

// Summary is the revenue dashboard.
type Summary struct {
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
	MonthlyRevenue    decimal.Decimal
	MonthlyOrders     int
	TotalOrders       int
	PricedOrders      int
	BestSellers       []BestSeller
	DailySales        []DailySale
}

// BestSeller aggregates sales of one cookie.
type BestSeller struct {
	CookieName string
	TotalSold  int
	Revenue    decimal.Decimal
}

// DailySale aggregates one calendar day.
type DailySale struct {
	// Date is midnight of the day in the aggregator's location.
	Date       time.Time
	Revenue    decimal.Decimal
	OrderCount int
}

// SummaryConfig controls Summarize.
type SummaryConfig struct {
	Now         time.Time
	Location    *time.Location
	BestSellers int
}

// Summarize computes the revenue dashboard for orders. The result does not
// depend on the order of the input.
func Summarize(orders []order.Order, cfg SummaryConfig) Summary {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	if cfg.BestSellers <= 0 {
		cfg.BestSellers = DefaultBestSellers
	}
	now := cfg.Now.In(loc)
	today := midnight(now)

	days := make([]DailySale, DailyWindow)
	dayIndex := make(map[time.Time]int, DailyWindow)
	for i := range days {
		d := today.AddDate(0, 0, i-(DailyWindow-1))
		days[i] = DailySale{Date: d, Revenue: decimal.Zero}
		dayIndex[d] = i
	}

	s := Summary{
		TotalRevenue:   decimal.Zero,
		MonthlyRevenue: decimal.Zero,
		TotalOrders:    len(orders),
	}
	sellers := make(map[string]*BestSeller)

	for i := range orders {
		o := &orders[i]
		created := o.CreatedAt.In(loc)
		thisMonth := created.Year() == now.Year() && created.Month() == now.Month()

		bs, ok := sellers[o.CookieName]
		if !ok {
			bs = &BestSeller{CookieName: o.CookieName, Revenue: decimal.Zero}
			sellers[o.CookieName] = bs
		}
		bs.TotalSold += o.Quantity

		if thisMonth {
			s.MonthlyOrders++
		}
		di, inWindow := dayIndex[midnight(created)]
		if inWindow {
			days[di].OrderCount++
		}

		if !o.Priced() {
			continue
		}
		price := *o.TotalPrice
		s.PricedOrders++
		s.TotalRevenue = s.TotalRevenue.Add(price)
		bs.Revenue = bs.Revenue.Add(price)
		if thisMonth {
			s.MonthlyRevenue = s.MonthlyRevenue.Add(price)
		}
		if inWindow {
			days[di].Revenue = days[di].Revenue.Add(price)
		}
	}

	s.AverageOrderValue = decimal.Zero
	if s.PricedOrders > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.PricedOrders))).Round(2)
	}
	s.BestSellers = rankBestSellers(sellers, cfg.BestSellers)
	s.DailySales = days
	return s
}

// rankBestSellers sorts by quantity, then revenue, both descending, then
// by name so ties are stable across calls.
func rankBestSellers(sellers map[string]*BestSeller, limit int) []BestSeller {
	out := make([]BestSeller, 0, len(sellers))
	for _, bs := range sellers {
		out = append(out, *bs)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalSold != b.TotalSold {
			return a.TotalSold > b.TotalSold
		}
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.CookieName < b.CookieName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RevenueSummary computes the dashboard from a single snapshot of all
// orders. Writes committed during the scan are not reflected.
func (s *Service) RevenueSummary(ctx context.Context) (*Summary, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, order.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	summary := Summarize(orders, SummaryConfig{
		Now:         s.now(),
		Location:    s.loc,
		BestSellers: s.bestSellers,
	})
	return &summary, nil
}
