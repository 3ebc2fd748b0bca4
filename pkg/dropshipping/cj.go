package dropshipping

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const defaultCJURL = "https://api.cjdropshipping.com"

type CJSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCJSource(baseURL, apiKey string, client *http.Client) *CJSource {
	if baseURL == "" {
		baseURL = defaultCJURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &CJSource{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (s *CJSource) Name() string { return "cj" }

func (s *CJSource) Search(ctx context.Context, opts SearchOptions) ([]Product, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"keyword":  opts.Query,
		"pageSize": opts.Limit,
		"page":     1,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/product/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	body, err := doRequest(s.client, s.Name(), req)
	if err != nil {
		return nil, err
	}

	var products []Product
	gjson.GetBytes(body, "data.list").ForEach(func(_, item gjson.Result) bool {
		products = append(products, s.toProduct(item, ""))
		return true
	})
	return products, nil
}

func (s *CJSource) Get(ctx context.Context, supplierProductID string) (*Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v1/product/"+supplierProductID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	body, err := doRequest(s.client, s.Name(), req)
	if err != nil {
		return nil, err
	}
	p := s.toProduct(gjson.ParseBytes(body), supplierProductID)
	return &p, nil
}

func (s *CJSource) toProduct(item gjson.Result, fallbackID string) Product {
	id := str(item, fallbackID, "productId", "id")
	if id == "" {
		id = uuid.NewString()
	}
	price := num(item, "price", "salePrice")
	return Product{
		ID:                id,
		Name:              str(item, "Unknown Product", "productName", "name"),
		Description:       str(item, "", "description", "productDescription"),
		Price:             price,
		Currency:          str(item, "USD", "currency"),
		ImageURL:          str(item, "", "mainImage", "imageUrl"),
		BuyURL:            str(item, "", "productUrl", "url"),
		Vendor:            str(item, "CJ Dropshipping", "supplierName"),
		Category:          str(item, "", "category"),
		Rating:            num(item, "rating", "averageRating"),
		Reviews:           count(item, "reviews", "reviewCount"),
		Orders:            count(item, "orders", "orderCount"),
		ShippingDays:      intPtr(intOr(count(item, "shippingDays", "deliveryTime"), 15)),
		ShippingMethod:    str(item, "Standard", "shippingMethod"),
		InStock:           inStock(item),
		SupplierProductID: id,
		SupplierPrice:     price,
		Source:            s.Name(),
	}
}
