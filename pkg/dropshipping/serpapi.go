package dropshipping

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const defaultSerpAPIURL = "https://serpapi.com"

var (
	currencyCode = regexp.MustCompile(`[A-Z]{3}`)
	nonPrice     = regexp.MustCompile(`[^0-9.]`)
)

// SerpAPISource reads Google Shopping results. It is a discovery source
// only: SerpApi has no stable per-product lookup.
type SerpAPISource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSerpAPISource(baseURL, apiKey string, client *http.Client) *SerpAPISource {
	if baseURL == "" {
		baseURL = defaultSerpAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SerpAPISource{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (s *SerpAPISource) Name() string { return "serpapi" }

func (s *SerpAPISource) Search(ctx context.Context, opts SearchOptions) ([]Product, error) {
	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", opts.Query)
	params.Set("api_key", s.apiKey)
	params.Set("num", strconv.Itoa(opts.Limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := doRequest(s.client, s.Name(), req)
	if err != nil {
		return nil, err
	}

	var products []Product
	gjson.GetBytes(body, "shopping_results").ForEach(func(_, item gjson.Result) bool {
		products = append(products, s.toProduct(item))
		return true
	})
	return products, nil
}

func (s *SerpAPISource) Get(ctx context.Context, supplierProductID string) (*Product, error) {
	return nil, ErrUnsupported
}

func (s *SerpAPISource) toProduct(item gjson.Result) Product {
	id := str(item, "", "product_id", "position")
	if id == "" {
		id = uuid.NewString()
	}
	rawPrice := item.Get("price").String()
	price, _ := strconv.ParseFloat(nonPrice.ReplaceAllString(rawPrice, ""), 64)
	currency := currencyCode.FindString(rawPrice)
	if currency == "" {
		currency = "USD"
	}
	reviews := int(item.Get("reviews").Int())

	return Product{
		ID:                id,
		Name:              str(item, "Unknown Product", "title"),
		Description:       strings.TrimSpace(item.Get("description").String()),
		Price:             price,
		Currency:          currency,
		ImageURL:          item.Get("thumbnail").String(),
		BuyURL:            item.Get("link").String(),
		Vendor:            str(item, "Google Shopping", "source"),
		Category:          item.Get("category").String(),
		Rating:            item.Get("rating").Float(),
		Reviews:           reviews,
		Orders:            reviews * 10,
		ShippingDays:      intPtr(15),
		ShippingMethod:    "Standard",
		InStock:           boolPtr(true),
		SupplierProductID: id,
		SupplierPrice:     price,
		Source:            s.Name(),
	}
}
