package dropshipping

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	defaultRapidAPIURL = "https://aliexpress-data.p.rapidapi.com"
	rapidAPIHost       = "aliexpress-data.p.rapidapi.com"
)

// AliExpressSource talks to the AliExpress data API on RapidAPI.
type AliExpressSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAliExpressSource(baseURL, apiKey string, client *http.Client) *AliExpressSource {
	if baseURL == "" {
		baseURL = defaultRapidAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &AliExpressSource{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (s *AliExpressSource) Name() string { return "aliexpress" }

func (s *AliExpressSource) Search(ctx context.Context, opts SearchOptions) ([]Product, error) {
	sort := "RATING"
	if opts.SortBy == SortOrdersDesc {
		sort = "ORDERS"
	}
	payload, err := json.Marshal(map[string]interface{}{
		"keywords": opts.Query,
		"page":     1,
		"pageSize": opts.Limit,
		"sort":     sort,
		"shipTo":   opts.ShipTo,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/product/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	body, err := doRequest(s.client, s.Name(), req)
	if err != nil {
		return nil, err
	}

	var products []Product
	gjson.GetBytes(body, "results").ForEach(func(_, item gjson.Result) bool {
		products = append(products, s.toProduct(item, ""))
		return true
	})
	return products, nil
}

func (s *AliExpressSource) Get(ctx context.Context, supplierProductID string) (*Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/product/"+supplierProductID, nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	body, err := doRequest(s.client, s.Name(), req)
	if err != nil {
		return nil, err
	}
	p := s.toProduct(gjson.ParseBytes(body), supplierProductID)
	return &p, nil
}

func (s *AliExpressSource) authorize(req *http.Request) {
	req.Header.Set("X-RapidAPI-Key", s.apiKey)
	req.Header.Set("X-RapidAPI-Host", rapidAPIHost)
}

func (s *AliExpressSource) toProduct(item gjson.Result, fallbackID string) Product {
	id := str(item, fallbackID, "productId")
	if id == "" {
		id = uuid.NewString()
	}
	price := num(item, "price.value", "price")
	return Product{
		ID:                id,
		Name:              str(item, "Unknown Product", "title", "productTitle"),
		Description:       str(item, "", "description", "productDescription"),
		Price:             price,
		Currency:          str(item, "USD", "price.currency"),
		ImageURL:          str(item, "", "imageUrl", "productImage"),
		BuyURL:            str(item, "", "productUrl", "affiliateUrl"),
		Vendor:            str(item, "AliExpress", "storeName"),
		Category:          str(item, "", "category"),
		Rating:            num(item, "rating", "averageStarRate"),
		Reviews:           count(item, "reviews", "totalReviews"),
		Orders:            count(item, "orders", "totalOrders"),
		ShippingDays:      intPtr(intOr(count(item, "shippingInfo.deliveryTime", "deliveryTime"), 30)),
		ShippingMethod:    str(item, "Standard", "shippingInfo.method"),
		InStock:           inStock(item),
		SupplierProductID: id,
		SupplierPrice:     price,
		Source:            s.Name(),
	}
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
