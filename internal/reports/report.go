// Package reports yönetici rapor sayfası için satış rakamlarını toplar.
package reports

import (
	"fmt"
	"sort"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"
	"kafe-backend/internal/status"
)

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Saatlik grafik aralığı
const (
	FirstHour   = 8
	LastHour    = 19
	TopProducts = 6
	OtherLabel  = "Diğer"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodToday, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	}
	return "", fmt.Errorf("%w: bilinmeyen dönem %q", apperr.ErrInvalidInput, s)
}

func (p Period) Label() string {
	switch p {
	case PeriodWeek:
		return "Bu Hafta"
	case PeriodMonth:
		return "Bu Ay"
	case PeriodYear:
		return "Bu Yıl"
	}
	return "Bugün"
}

// Range dönem aralığını [from, to) ve önceki dönemin başlangıcını loc'ta
// döner. Hafta pazar başlar.
func (p Period) Range(now time.Time, loc *time.Location) (from, to, prevFrom time.Time) {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	switch p {
	case PeriodWeek:
		from = day.AddDate(0, 0, -int(day.Weekday()))
		prevFrom = from.AddDate(0, 0, -7)
	case PeriodMonth:
		from = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		prevFrom = from.AddDate(0, -1, 0)
	case PeriodYear:
		from = time.Date(local.Year(), 1, 1, 0, 0, 0, 0, loc)
		prevFrom = from.AddDate(-1, 0, 0)
	default:
		from = day
		prevFrom = day.AddDate(0, 0, -1)
	}
	return from, now, prevFrom
}

type Summary struct {
	Revenue       float64 `json:"revenue"`
	Orders        int     `json:"orders"`
	AverageOrder  float64 `json:"average_order"`
	PrevRevenue   float64 `json:"previous_revenue"`
	GrowthPercent float64 `json:"growth_percent"`
}

type ProductSales struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type HourBucket struct {
	Hour   string  `json:"hour"` // "08:00"
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

type CategorySales struct {
	Category   string  `json:"category"`
	Sales      float64 `json:"sales"`
	Percentage float64 `json:"percentage"`
}

type Report struct {
	Period      Period          `json:"period"`
	Label       string          `json:"label"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Summary     Summary         `json:"summary"`
	TopProducts []ProductSales  `json:"top_products"`
	Hourly      []HourBucket    `json:"hourly"`
	Categories  []CategorySales `json:"categories"`
}

func counted(o models.Order) bool {
	return o.Status != status.OrderCancelled
}

// Build dönemin siparişlerini (current) önceki dönemle (previous)
// karşılaştırarak toplar. İptal edilenler sayılmaz.
func Build(p Period, from, to time.Time, current, previous []models.Order, menu []models.MenuItem, loc *time.Location) Report {
	r := Report{Period: p, Label: p.Label(), From: from, To: to}

	var prev float64
	for _, o := range previous {
		if counted(o) {
			prev += o.TotalAmount
		}
	}

	byID := make(map[uint]string, len(menu))
	byName := make(map[string]string, len(menu))
	for _, m := range menu {
		byID[m.ID] = m.Category
		byName[m.Name] = m.Category
	}

	products := map[string]*ProductSales{}
	hours := map[int]*HourBucket{}
	cats := map[string]float64{}
	var catTotal float64

	for _, o := range current {
		if !counted(o) {
			continue
		}
		r.Summary.Revenue += o.TotalAmount
		r.Summary.Orders++

		h := o.CreatedAt.In(loc).Hour()
		if hours[h] == nil {
			hours[h] = &HourBucket{}
		}
		hours[h].Sales += o.TotalAmount
		hours[h].Orders++

		for _, it := range o.Items {
			ps := products[it.Name]
			if ps == nil {
				ps = &ProductSales{Name: it.Name}
				products[it.Name] = ps
			}
			ps.Quantity += it.Quantity
			ps.Revenue += it.LineTotal()

			cat, ok := byID[it.MenuItemID]
			if !ok {
				cat, ok = byName[it.Name]
			}
			if !ok || cat == "" {
				cat = OtherLabel
			}
			cats[cat] += it.LineTotal()
			catTotal += it.LineTotal()
		}
	}

	r.Summary.PrevRevenue = prev
	if r.Summary.Orders > 0 {
		r.Summary.AverageOrder = r.Summary.Revenue / float64(r.Summary.Orders)
	}
	if prev > 0 {
		r.Summary.GrowthPercent = (r.Summary.Revenue - prev) / prev * 100
	}

	r.TopProducts = make([]ProductSales, 0, len(products))
	for _, ps := range products {
		r.TopProducts = append(r.TopProducts, *ps)
	}
	sort.Slice(r.TopProducts, func(i, j int) bool {
		a, b := r.TopProducts[i], r.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(r.TopProducts) > TopProducts {
		r.TopProducts = r.TopProducts[:TopProducts]
	}

	r.Hourly = make([]HourBucket, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		b := HourBucket{Hour: fmt.Sprintf("%02d:00", h)}
		if got := hours[h]; got != nil {
			b.Sales, b.Orders = got.Sales, got.Orders
		}
		r.Hourly = append(r.Hourly, b)
	}

	r.Categories = make([]CategorySales, 0, len(cats))
	for name, sales := range cats {
		cs := CategorySales{Category: name, Sales: sales}
		if catTotal > 0 {
			cs.Percentage = sales / catTotal * 100
		}
		r.Categories = append(r.Categories, cs)
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		a, b := r.Categories[i], r.Categories[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		return a.Category < b.Category
	})
	return r
}
