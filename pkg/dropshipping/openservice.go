package dropshipping

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	defaultOpenServiceURL = "https://api-sg.aliexpress.com"
	openServiceSearchPath = "/solutions/product/api/query/aliexpress.product.search"
	openServiceDetailPath = "/solutions/product/api/query/aliexpress.product.detail.get"
)

// OpenServiceSource talks to the official AliExpress open platform using a
// pre-issued access token.
type OpenServiceSource struct {
	baseURL string
	appKey  string
	client  *http.Client
}

func NewOpenServiceSource(ctx context.Context, baseURL, appKey, accessToken string) *OpenServiceSource {
	if baseURL == "" {
		baseURL = defaultOpenServiceURL
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return &OpenServiceSource{
		baseURL: baseURL,
		appKey:  appKey,
		client:  oauth2.NewClient(ctx, ts),
	}
}

func (s *OpenServiceSource) Name() string { return "openservice-aliexpress" }

func (s *OpenServiceSource) Search(ctx context.Context, opts SearchOptions) ([]Product, error) {
	sort := "RATING_DESC"
	if opts.SortBy == SortOrdersDesc {
		sort = "SALE_DESC"
	}
	shipTo := opts.ShipTo
	if shipTo == "" {
		shipTo = "US"
	}
	params := url.Values{}
	params.Set("keywords", opts.Query)
	params.Set("pageNo", "1")
	params.Set("pageSize", strconv.Itoa(opts.Limit))
	params.Set("sort", sort)
	params.Set("locale", "en_US")
	params.Set("currency", "USD")
	params.Set("shipToCountry", shipTo)

	body, err := s.get(ctx, openServiceSearchPath+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	items := first(gjson.ParseBytes(body), "result.products", "products", "data.products")
	var products []Product
	items.ForEach(func(_, item gjson.Result) bool {
		products = append(products, s.toProduct(item, ""))
		return true
	})
	return products, nil
}

func (s *OpenServiceSource) Get(ctx context.Context, supplierProductID string) (*Product, error) {
	body, err := s.get(ctx, openServiceDetailPath+"?productId="+url.QueryEscape(supplierProductID))
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(body)
	item := first(root, "result", "data")
	if !item.Exists() {
		item = root
	}
	p := s.toProduct(item, supplierProductID)
	return &p, nil
}

func (s *OpenServiceSource) get(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.appKey)
	return doRequest(s.client, s.Name(), req)
}

func (s *OpenServiceSource) toProduct(item gjson.Result, fallbackID string) Product {
	id := str(item, fallbackID, "productId", "product_id")
	if id == "" {
		id = uuid.NewString()
	}
	price := num(item, "productPrice.value", "price", "productPrice")
	return Product{
		ID:                id,
		Name:              str(item, "Unknown Product", "subject", "title", "productTitle"),
		Description:       str(item, "", "productDescription", "description"),
		Price:             price,
		Currency:          str(item, "USD", "currencyCode", "currency"),
		ImageURL:          str(item, "", "productMainImageUrl", "mainImageUrl", "imageUrl"),
		BuyURL:            str(item, "", "productUrl", "affiliateProductUrl", "productDetailUrl"),
		Vendor:            str(item, "AliExpress", "storeName", "sellerName"),
		Category:          str(item, "", "categoryName", "category"),
		Rating:            num(item, "evaluateScore", "rating", "averageStarRate"),
		Reviews:           count(item, "evaluateCount", "reviews", "totalReviews"),
		Orders:            count(item, "volume", "orders", "totalOrders"),
		ShippingDays:      intPtr(intOr(count(item, "deliveryTime", "shippingDays"), 30)),
		ShippingMethod:    str(item, "Standard", "shippingMethod"),
		InStock:           inStock(item),
		SupplierProductID: id,
		SupplierPrice:     price,
		Source:            s.Name(),
	}
}
