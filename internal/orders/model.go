package orders

import "time"

// OrderStatus mirrors the storefront order lifecycle states we ingest.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// AcceptedStatuses lists the states that count toward sales reporting.
var AcceptedStatuses = []OrderStatus{OrderStatusCompleted, OrderStatusProcessing}

// Order is one storefront order as persisted by the sync pipeline. The ID is
// unique within a site only, so callers de-duplicate on it defensively.
type Order struct {
	ID              string      `json:"id" db:"order_id"`
	SiteID          string      `json:"site_id" db:"site_id"`
	SiteName        string      `json:"site_name" db:"site_name"`
	Status          OrderStatus `json:"status" db:"status"`
	Total           float64     `json:"total" db:"total"`
	BillingCountry  string      `json:"billing_country" db:"billing_country"`
	ShippingCountry string      `json:"shipping_country" db:"shipping_country"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	Lines           []LineItem  `json:"lines,omitempty" db:"-"`
}

// LineItem belongs to exactly one order and has no independent lifecycle.
type LineItem struct {
	SKU      string  `json:"sku" db:"sku"`
	Name     string  `json:"name" db:"name"`
	Quantity float64 `json:"quantity" db:"quantity"`
	Total    float64 `json:"total" db:"line_total"`
}
