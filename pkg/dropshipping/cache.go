package dropshipping

import (
	"context"
	"fmt"
	"strings"
)

// SearchCache keeps supplier responses across requests. Implementations
// must treat misses and backend errors alike.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]Product, bool)
	Set(ctx context.Context, key string, products []Product)
}

func CacheKey(source string, opts SearchOptions) string {
	return fmt.Sprintf("dropshipping:%s:%s:%d:%s:%s",
		source, strings.ToLower(strings.TrimSpace(opts.Query)), opts.Limit, opts.ShipTo, opts.SortBy)
}
