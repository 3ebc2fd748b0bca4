// Package dropshipping searches supplier catalogues and vets the results
// before they are shown to a shopper.
package dropshipping

const (
	MinRating            = 4.5
	MinOrders            = 100
	MaxShippingDays      = 15
	PreRankSize          = 10
	MaxResults           = 5
	MarkupMultiplier     = 2.5
	DefaultPageSize      = 50
	MinDescriptionLength = 50
)

const (
	SortOrdersDesc = "ORDERS_DESC"
	SortRatingDesc = "RATING_DESC"
	SortPriceAsc   = "PRICE_ASC"
	SortPriceDesc  = "PRICE_DESC"
)

// Product is a supplier catalogue item. SupplierPrice is the cost basis;
// Price is what the shopper sees and only ever comes from ApplyMarkup.
type Product struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	Currency          string  `json:"currency"`
	ImageURL          string  `json:"imageUrl"`
	BuyURL            string  `json:"buyUrl"`
	Vendor            string  `json:"vendor,omitempty"`
	Category          string  `json:"category,omitempty"`
	Rating            float64 `json:"rating,omitempty"`
	Reviews           int     `json:"reviews,omitempty"`
	Orders            int     `json:"orders,omitempty"`
	ShippingDays      *int    `json:"shippingDays,omitempty"`
	ShippingMethod    string  `json:"shippingMethod,omitempty"`
	InStock           *bool   `json:"inStock,omitempty"`
	SupplierProductID string  `json:"supplierProductId,omitempty"`
	SupplierPrice     float64 `json:"supplierPrice,omitempty"`
	Source            string  `json:"source,omitempty"`
}

// Score ranks candidates by social proof.
func (p Product) Score() float64 {
	return p.Rating * float64(p.Orders)
}

func (p Product) SupplierID() string {
	if p.SupplierProductID != "" {
		return p.SupplierProductID
	}
	return p.ID
}

// Available is false only when the supplier explicitly says so.
func (p Product) Available() bool {
	return p.InStock == nil || *p.InStock
}

// ApplyMarkup derives the display price from the supplier price. A product
// without a supplier price uses its raw price as the cost basis.
func ApplyMarkup(p Product) Product {
	cost := p.SupplierPrice
	if cost == 0 {
		cost = p.Price
	}
	p.SupplierPrice = cost
	p.Price = cost * MarkupMultiplier
	return p
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
