package services

import (
	"context"
	"strings"

	"dashboard/internal/domain"
	"dashboard/internal/domain/models"
	"dashboard/internal/listquery"
	"dashboard/internal/utils"
)

// Order filter keys.
const (
	FilterStatus  = "status"
	FilterMinDate = "minDate"
	FilterMaxDate = "maxDate"
)

// OrderCard is an order as shown on the calendar, with its status badge.
type OrderCard struct {
	models.Order
	StatusLabel string `json:"statusLabel"`
	StatusColor string `json:"statusColor"`
}

// OrderGroup is the orders of one calendar day.
type OrderGroup struct {
	Date   string      `json:"date"`
	Label  string      `json:"label"`
	Orders []OrderCard `json:"orders"`
}

// GroupOrdersByDate buckets orders by their date, keeping the order in
// which each date was first seen.
func GroupOrdersByDate(orders []models.Order) []OrderGroup {
	groups := []OrderGroup{}
	index := map[string]int{}
	for _, o := range orders {
		i, ok := index[o.Date]
		if !ok {
			i = len(groups)
			index[o.Date] = i
			groups = append(groups, OrderGroup{Date: o.Date, Label: utils.FormatLongDate(o.Date)})
		}
		groups[i].Orders = append(groups[i].Orders, OrderCard{
			Order:       o,
			StatusLabel: StatusLabel(o.Status),
			StatusColor: StatusColor(o.Status),
		})
	}
	return groups
}

// StatusLabel renders an order status for display. Unknown values pass through.
func StatusLabel(status string) string {
	switch domain.Status(status) {
	case domain.StatusAccepted:
		return "Accepted"
	case domain.StatusRejected:
		return "Rejected"
	case domain.StatusPrepayment:
		return "Prepayment"
	case domain.StatusPending, "":
		return "Pending"
	}
	return status
}

// StatusColor is the badge color used next to the label.
func StatusColor(status string) string {
	switch domain.Status(status) {
	case domain.StatusAccepted:
		return "green"
	case domain.StatusRejected:
		return "red"
	case domain.StatusPrepayment:
		return "yellow"
	}
	return "gray"
}

// NormalizeStatusFilter maps the "all" choice to no filter. Only the statuses
// offered by the filter select are accepted.
func NormalizeStatusFilter(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch domain.Status(v) {
	case "", domain.StatusAll:
		return "", nil
	case domain.StatusAccepted, domain.StatusRejected, domain.StatusPrepayment:
		return v, nil
	}
	return "", domain.ValidationError{Field: FilterStatus, Msg: "unknown order status " + v}
}

// OrderFilters is the filter bar shared by both order pages.
type OrderFilters struct {
	Status  *string `json:"status"`
	MinDate *string `json:"minDate"`
	MaxDate *string `json:"maxDate"`
}

// Values validates the filters and returns the set to apply; nil fields are left as they are.
func (f OrderFilters) Values() (map[string]string, error) {
	out := map[string]string{}
	if f.Status != nil {
		s, err := NormalizeStatusFilter(*f.Status)
		if err != nil {
			return nil, err
		}
		out[FilterStatus] = s
	}
	for key, v := range map[string]*string{FilterMinDate: f.MinDate, FilterMaxDate: f.MaxDate} {
		if v == nil {
			continue
		}
		d := strings.TrimSpace(*v)
		if d != "" && !utils.IsDate(d) {
			return nil, domain.ValidationError{Field: key, Msg: "expected YYYY-MM-DD"}
		}
		out[key] = d
	}
	if err := checkDateRange(out[FilterMinDate], out[FilterMaxDate]); err != nil {
		return nil, err
	}
	return out, nil
}

func checkDateRange(lo, hi string) error {
	if lo != "" && hi != "" && lo > hi {
		return domain.ValidationError{Field: FilterMaxDate, Msg: "maxDate is before minDate"}
	}
	return nil
}

// ApplyOrderFilters updates an order page's filters as one change.
func ApplyOrderFilters(ctx context.Context, c *listquery.Controller[models.Order], f OrderFilters) (listquery.View[models.Order], error) {
	values, err := f.Values()
	if err != nil {
		return c.View(), err
	}
	current := c.View()
	bound := func(key string) string {
		if v, ok := values[key]; ok {
			return v
		}
		return current.Filters[key]
	}
	if err := checkDateRange(bound(FilterMinDate), bound(FilterMaxDate)); err != nil {
		return current, err
	}
	return c.SetFilters(ctx, values)
}

// GroupedOrders is the calendar view of the orders page.
type GroupedOrders struct {
	listquery.View[models.Order]
	Groups []OrderGroup `json:"groups"`
}

func (d *Dashboard) GroupedOrders(ctx context.Context) GroupedOrders {
	v := d.Pages().Orders.Ensure(ctx)
	return GroupedOrders{View: v, Groups: GroupOrdersByDate(v.Items)}
}
