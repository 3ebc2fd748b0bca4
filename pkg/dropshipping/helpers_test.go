package dropshipping

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

type fakeSource struct {
	name     string
	searchFn func(ctx context.Context, opts SearchOptions) ([]Product, error)
	getFn    func(ctx context.Context, id string) (*Product, error)
	calls    atomic.Int32
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Search(ctx context.Context, opts SearchOptions) ([]Product, error) {
	s.calls.Add(1)
	if s.searchFn == nil {
		return nil, nil
	}
	return s.searchFn(ctx, opts)
}

func (s *fakeSource) Get(ctx context.Context, id string) (*Product, error) {
	if s.getFn == nil {
		return nil, ErrUnsupported
	}
	return s.getFn(ctx, id)
}

type fakeJudge struct {
	mu      sync.Mutex
	verdict map[string]bool
	errs    map[string]error
	seen    []string
}

func (j *fakeJudge) Judge(_ context.Context, p Product) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seen = append(j.seen, p.ID)
	if err, ok := j.errs[p.ID]; ok {
		return false, err
	}
	if v, ok := j.verdict[p.ID]; ok {
		return v, nil
	}
	return true, nil
}

// good builds a product that clears every filter.
func good(id string, rating float64, orders int) Product {
	return Product{
		ID:                id,
		Name:              "Minimalist leather backpack " + id,
		Description:       strings.Repeat("Full-grain leather, padded laptop sleeve. ", 2),
		Price:             40,
		Currency:          "USD",
		ImageURL:          "https://img.example.com/" + id + ".jpg",
		Rating:            rating,
		Orders:            orders,
		ShippingDays:      intPtr(10),
		InStock:           boolPtr(true),
		SupplierProductID: id,
		SupplierPrice:     40,
		Source:            "fake",
	}
}

func products(n int) []Product {
	out := make([]Product, n)
	for i := range out {
		out[i] = good(fmt.Sprintf("p%d", i), 4.6+float64(i%4)/10, 100+i*50)
	}
	return out
}
