package dropshipping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrUnsupported = errors.New("operation not supported by source")
)

type SearchOptions struct {
	Query  string
	Limit  int
	ShipTo string
	SortBy string
}

// Source is one supplier catalogue.
type Source interface {
	Name() string
	Search(ctx context.Context, opts SearchOptions) ([]Product, error)
	// Get returns ErrNotFound when the supplier no longer lists the product.
	Get(ctx context.Context, supplierProductID string) (*Product, error)
}

// HTTPError is a non-2xx supplier response.
type HTTPError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Source, e.StatusCode, e.Body)
}

// Permanent reports whether retrying cannot help.
func (e *HTTPError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

func doRequest(client *http.Client, source string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", source, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Source: source, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// first returns the first path that holds a non-empty value.
func first(item gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		r := item.Get(p)
		if r.Exists() && r.Type != gjson.Null && r.String() != "" && r.String() != "0" {
			return r
		}
	}
	return gjson.Result{}
}

func str(item gjson.Result, def string, paths ...string) string {
	if r := first(item, paths...); r.Exists() {
		return r.String()
	}
	return def
}

func num(item gjson.Result, paths ...string) float64 {
	return first(item, paths...).Float()
}

func count(item gjson.Result, paths ...string) int {
	return int(first(item, paths...).Int())
}

// inStock mirrors the suppliers' convention: only an explicit false means out of stock.
func inStock(item gjson.Result) *bool {
	r := item.Get("inStock")
	return boolPtr(!(r.Exists() && r.Type == gjson.False))
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupported) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return !he.Permanent()
	}
	return true
}
