package models

import "time"

// CatalogColor is a color entry in the static style catalog. Catalog colors
// carry descriptive data only; size availability always comes from the live
// stock snapshot.
type CatalogColor struct {
	ColorName        string `json:"colorName"`
	ColorCode        string `json:"colorCode"`
	HexColor         string `json:"hexColor"`
	ColorSwatchImage string `json:"colorSwatchImage,omitempty"`
	ColorFrontImage  string `json:"colorFrontImage,omitempty"`
	ColorBackImage   string `json:"colorBackImage,omitempty"`
}

// CatalogStyle is one product line in the static catalog, loaded once at
// startup and never mutated.
type CatalogStyle struct {
	StyleID   string         `json:"styleId"`
	StyleCode string         `json:"styleCode"`
	StyleName string         `json:"styleName"`
	Category  string         `json:"category"`
	Colors    []CatalogColor `json:"colors"`
}

// SizeStock is one in-stock size within a snapshot color. Qty is always > 0;
// zero-stock sizes are never materialized.
type SizeStock struct {
	Size string `json:"size"`
	Qty  int    `json:"qty"`
}

// ColorStock is the per-color slice of a stock snapshot.
type ColorStock struct {
	CatalogColor
	Sizes []SizeStock `json:"sizes"`
}

// StockSnapshot is the normalized view of the vendor's stock for one style,
// restricted to a single fulfillment warehouse. Snapshots are immutable;
// refreshes replace them wholesale.
type StockSnapshot struct {
	StyleCode     string       `json:"style"`
	WarehouseCode string       `json:"warehouse"`
	Colors        []ColorStock `json:"availableColors"`
	FetchedAt     time.Time    `json:"-"`
}

// OrderableStyle is the intersection of a catalog style with a live stock
// snapshot: the colors an employee can actually order right now.
// StockUnknown distinguishes "the stock fetch failed, nothing is orderable
// until it recovers" from a style that is genuinely out of stock.
type OrderableStyle struct {
	StyleID       string       `json:"styleId"`
	StyleCode     string       `json:"style"`
	StyleName     string       `json:"styleName"`
	WarehouseCode string       `json:"warehouse"`
	Colors        []ColorStock `json:"availableColors"`
	TotalColors   int          `json:"totalColors"`
	StockUnknown  bool         `json:"stockUnknown,omitempty"`
}

// ItemSelection is one filled slot of an employee order: a style/color/size
// triple. An empty slot is represented by the zero value.
type ItemSelection struct {
	Style string `db:"-" json:"style,omitempty"`
	Color string `db:"-" json:"color,omitempty"`
	Size  string `db:"-" json:"size,omitempty"`
}

// Empty reports whether the slot was left unfilled.
func (s ItemSelection) Empty() bool {
	return s.Style == "" && s.Color == "" && s.Size == ""
}

// Complete reports whether all three fields of the triple are present.
func (s ItemSelection) Complete() bool {
	return s.Style != "" && s.Color != "" && s.Size != ""
}

// EmployeeOrder is one employee's submission: three shirt slots and one
// outerwear slot. Completed orders are immutable.
type EmployeeOrder struct {
	ID           string     `db:"id" json:"id"`
	EmployeeName string     `db:"employee_name" json:"employee_name"`
	Shirt1Style  *string    `db:"tshirt_1_style" json:"tshirt_1_style,omitempty"`
	Shirt1Color  *string    `db:"tshirt_1_color" json:"tshirt_1_color,omitempty"`
	Shirt1Size   *string    `db:"tshirt_1_size" json:"tshirt_1_size,omitempty"`
	Shirt2Style  *string    `db:"tshirt_2_style" json:"tshirt_2_style,omitempty"`
	Shirt2Color  *string    `db:"tshirt_2_color" json:"tshirt_2_color,omitempty"`
	Shirt2Size   *string    `db:"tshirt_2_size" json:"tshirt_2_size,omitempty"`
	Shirt3Style  *string    `db:"tshirt_3_style" json:"tshirt_3_style,omitempty"`
	Shirt3Color  *string    `db:"tshirt_3_color" json:"tshirt_3_color,omitempty"`
	Shirt3Size   *string    `db:"tshirt_3_size" json:"tshirt_3_size,omitempty"`
	OuterType    *string    `db:"outerwear_type" json:"outerwear_type,omitempty"`
	OuterColor   *string    `db:"outerwear_color" json:"outerwear_color,omitempty"`
	OuterSize    *string    `db:"outerwear_size" json:"outerwear_size,omitempty"`
	Status       string     `db:"status" json:"status"`
	BatchID      *string    `db:"batch_id" json:"batch_id,omitempty"`
	SSOrderID    *string    `db:"ss_order_id" json:"ss_order_id,omitempty"`
	SSOrderDate  *time.Time `db:"ss_order_date" json:"ss_order_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Slots returns the four item slots in fixed order: shirts 1-3, then
// outerwear. Unfilled slots come back as zero values.
func (o *EmployeeOrder) Slots() [4]ItemSelection {
	return [4]ItemSelection{
		{Style: deref(o.Shirt1Style), Color: deref(o.Shirt1Color), Size: deref(o.Shirt1Size)},
		{Style: deref(o.Shirt2Style), Color: deref(o.Shirt2Color), Size: deref(o.Shirt2Size)},
		{Style: deref(o.Shirt3Style), Color: deref(o.Shirt3Color), Size: deref(o.Shirt3Size)},
		{Style: deref(o.OuterType), Color: deref(o.OuterColor), Size: deref(o.OuterSize)},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// AggregatedLineItem is one deduplicated line of a bulk purchase order.
// Identifier is the vendor SKU when resolution succeeded, otherwise the
// composite style|color|size key with Resolved=false.
type AggregatedLineItem struct {
	Identifier string `json:"sku"`
	Qty        int    `json:"qty"`
	Resolved   bool   `json:"-"`
}

// BatchSummary is one row of the batch history view: all completed orders
// that share a vendor order identifier.
type BatchSummary struct {
	BatchID     string    `db:"batch_id" json:"batch_id"`
	SSOrderID   string    `db:"ss_order_id" json:"ss_order_id"`
	SSOrderDate time.Time `db:"ss_order_date" json:"ss_order_date"`
	OrderCount  int       `db:"order_count" json:"order_count"`
}

// SKUEntry maps a style/color/size triple to the vendor's stock-keeping
// unit identifier.
type SKUEntry struct {
	Style string `db:"style" json:"style"`
	Color string `db:"color" json:"color"`
	Size  string `db:"size" json:"size"`
	SKU   string `db:"sku" json:"sku"`
}

// ProcessedEvent for audit-worker idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
