package dropshipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliExpressSource_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/product/search", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, rapidAPIHost, r.Header.Get("X-RapidAPI-Host"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "desk lamp", body["keywords"])
		assert.Equal(t, "ORDERS", body["sort"])

		_, _ = w.Write([]byte(`{"results":[
			{"productId":"1","title":"Arc lamp","price":{"value":"12.50","currency":"EUR"},"averageStarRate":"4.7","totalOrders":320,"shippingInfo":{"deliveryTime":9,"method":"ePacket"},"storeName":"Lumen"},
			{"productId":"2","productTitle":"Desk lamp","price":8,"inStock":false}
		]}`))
	}))
	defer srv.Close()

	src := NewAliExpressSource(srv.URL, "key", srv.Client())
	got, err := src.Search(context.Background(), SearchOptions{Query: "desk lamp", Limit: 50, SortBy: SortOrdersDesc, ShipTo: "US"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Arc lamp", got[0].Name)
	assert.Equal(t, 12.5, got[0].SupplierPrice)
	assert.Equal(t, "EUR", got[0].Currency)
	assert.Equal(t, 4.7, got[0].Rating)
	assert.Equal(t, 320, got[0].Orders)
	assert.Equal(t, 9, *got[0].ShippingDays)
	assert.Equal(t, "ePacket", got[0].ShippingMethod)
	assert.True(t, got[0].Available())

	assert.Equal(t, "Desk lamp", got[1].Name)
	assert.Equal(t, "AliExpress", got[1].Vendor)
	assert.Equal(t, 30, *got[1].ShippingDays)
	assert.False(t, got[1].Available())
}

func TestSources_GetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sources := []Source{
		NewAliExpressSource(srv.URL, "k", srv.Client()),
		NewCJSource(srv.URL, "k", srv.Client()),
		NewOpenServiceSource(context.Background(), srv.URL, "app", "token"),
	}
	for _, src := range sources {
		t.Run(src.Name(), func(t *testing.T) {
			_, err := src.Get(context.Background(), "42")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestOpenServiceSource_SearchSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, openServiceSearchPath, r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "app", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "SALE_DESC", r.URL.Query().Get("sort"))
		assert.Equal(t, "DE", r.URL.Query().Get("shipToCountry"))
		_, _ = w.Write([]byte(`{"result":{"products":[{"productId":"9","subject":"Linen throw","productPrice":{"value":"19.9"},"evaluateScore":"4.9","volume":"1200","deliveryTime":"12"}]}}`))
	}))
	defer srv.Close()

	src := NewOpenServiceSource(context.Background(), srv.URL, "app", "token")
	got, err := src.Search(context.Background(), SearchOptions{Query: "throw", Limit: 10, SortBy: SortOrdersDesc, ShipTo: "DE"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Linen throw", got[0].Name)
	assert.Equal(t, 19.9, got[0].SupplierPrice)
	assert.Equal(t, 1200, got[0].Orders)
	assert.Equal(t, 12, *got[0].ShippingDays)
	assert.Equal(t, "openservice-aliexpress", got[0].Source)
}

func TestCJSource_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer cj-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"list":[{"id":"cj1","productName":"Ceramic mug","salePrice":"6.2","averageRating":4.6,"orderCount":150}]}}`))
	}))
	defer srv.Close()

	got, err := NewCJSource(srv.URL, "cj-key", srv.Client()).Search(context.Background(), SearchOptions{Query: "mug", Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cj1", got[0].SupplierProductID)
	assert.Equal(t, 6.2, got[0].Price)
	assert.Equal(t, 15, *got[0].ShippingDays)
	assert.Equal(t, "CJ Dropshipping", got[0].Vendor)
}

func TestSerpAPISource_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google_shopping", r.URL.Query().Get("engine"))
		assert.Equal(t, "espresso cups", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"shopping_results":[{"product_id":"s1","title":"Espresso cups","price":"$24.99 USD","rating":4.8,"reviews":40,"source":"Etsy","thumbnail":"https://t/1.jpg"}]}`))
	}))
	defer srv.Close()

	src := NewSerpAPISource(srv.URL, "serp", srv.Client())
	got, err := src.Search(context.Background(), SearchOptions{Query: "espresso cups", Limit: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 24.99, got[0].Price)
	assert.Equal(t, "USD", got[0].Currency)
	assert.Equal(t, 400, got[0].Orders)
	assert.Equal(t, "Etsy", got[0].Vendor)

	_, err = src.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestHTTPError_Permanent(t *testing.T) {
	assert.True(t, (&HTTPError{StatusCode: 400}).Permanent())
	assert.False(t, (&HTTPError{StatusCode: 429}).Permanent())
	assert.False(t, (&HTTPError{StatusCode: 503}).Permanent())
}

func TestNewSources(t *testing.T) {
	tests := []struct {
		name      string
		providers []string
		creds     Credentials
		want      []string
		wantErr   bool
	}{
		{name: "rapidapi aliexpress", providers: []string{"aliexpress"}, creds: Credentials{RapidAPIKey: "k"}, want: []string{"aliexpress"}},
		{
			name:      "app key switches to open platform",
			providers: []string{"aliexpress", "cj"},
			creds:     Credentials{AliExpressAppKey: "a", AliExpressAppSecret: "s", AliExpressToken: "t", CJKey: "c"},
			want:      []string{"openservice-aliexpress", "cj"},
		},
		{name: "duplicates collapse", providers: []string{"serpapi", " SerpApi "}, creds: Credentials{SerpAPIKey: "s"}, want: []string{"serpapi"}},
		{name: "missing key", providers: []string{"cj"}, wantErr: true},
		{name: "unknown provider", providers: []string{"temu"}, wantErr: true},
		{name: "nothing configured", providers: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSources(context.Background(), tt.providers, tt.creds, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, s := range got {
				names = append(names, s.Name())
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
