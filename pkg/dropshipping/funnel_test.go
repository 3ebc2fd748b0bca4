package dropshipping

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sort"
	"testing"
	"time"

	"desirefinder-be/internal/pkg/logger"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFunnel(sources []Source, judge ImageJudge, opts ...Option) *Funnel {
	cfg := Config{
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
		VisionEnabled: judge != nil,
	}
	return NewFunnel(sources, judge, cfg, logger.NewNopLogger(), opts...)
}

func ids(results []VettedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Product.ID
	}
	return out
}

func TestFunnel_PipelineOrder(t *testing.T) {
	lowRated := good("low", 4.2, 5000)
	slow := good("slow", 5, 5000)
	slow.ShippingDays = intPtr(20)
	generic := good("generic", 5, 4000)
	generic.Name = "Generic backpack"
	noImage := good("noimg", 5, 3000)
	noImage.ImageURL = ""
	rejected := good("ugly", 5, 2000)
	flaky := good("flaky", 4.9, 1500)

	src := &fakeSource{name: "a", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
		return []Product{lowRated, slow, generic, noImage, rejected, flaky, good("ok1", 4.7, 900), good("ok2", 4.8, 200)}, nil
	}}
	judge := &fakeJudge{
		verdict: map[string]bool{"ugly": false},
		errs:    map[string]error{"flaky": errors.New("vision quota")},
	}

	results, err := newTestFunnel([]Source{src}, judge).Run(context.Background(), Request{Queries: []string{"backpack"}, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{"flaky", "ok1", "ok2"}, ids(results))
	assert.NotContains(t, judge.seen, "noimg", "products without images are rejected before the judge")
	assert.NotContains(t, judge.seen, "generic", "text filter runs before the judge")
	for _, r := range results {
		assert.InDelta(t, r.Product.SupplierPrice*MarkupMultiplier, r.Product.Price, 1e-9)
	}
}

func TestFunnel_PreRanksTopTenBeforeVision(t *testing.T) {
	src := &fakeSource{name: "a", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
		return products(25), nil
	}}
	judge := &fakeJudge{}

	_, err := newTestFunnel([]Source{src}, judge).Run(context.Background(), Request{Queries: []string{"bag"}})
	require.NoError(t, err)
	assert.Len(t, judge.seen, PreRankSize)
}

func TestFunnel_DegradesWhenSourceFails(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int32
	}{
		{name: "permanent 4xx is not retried", err: &HTTPError{Source: "broken", StatusCode: http.StatusUnauthorized}, wantCalls: 1},
		{name: "5xx is retried", err: &HTTPError{Source: "broken", StatusCode: http.StatusBadGateway}, wantCalls: 3},
		{name: "network error is retried", err: errors.New("connection reset"), wantCalls: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := &fakeSource{name: "broken", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
				return nil, tt.err
			}}
			healthy := &fakeSource{name: "healthy", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
				return products(3), nil
			}}

			results, err := newTestFunnel([]Source{broken, healthy}, nil).Run(context.Background(), Request{Queries: []string{"bag"}})
			require.NoError(t, err)
			assert.Len(t, results, 3)
			assert.Equal(t, tt.wantCalls, broken.calls.Load())
		})
	}
}

func TestFunnel_AllSourcesDownReturnsEmpty(t *testing.T) {
	broken := &fakeSource{name: "broken", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
		return nil, &HTTPError{StatusCode: http.StatusForbidden}
	}}
	results, err := newTestFunnel([]Source{broken}, nil).Run(context.Background(), Request{Queries: []string{"bag"}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFunnel_RejectsMissingImageWithVisionOff(t *testing.T) {
	noImage := good("noimg", 5, 3000)
	noImage.ImageURL = ""
	src := &fakeSource{name: "a", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
		return []Product{noImage, good("ok", 4.8, 500)}, nil
	}}

	results, err := newTestFunnel([]Source{src}, nil).Run(context.Background(), Request{Queries: []string{"backpack"}, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, ids(results))
}

func TestFunnel_MemoDedupesWithinTurn(t *testing.T) {
	src := &fakeSource{name: "a", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
		return products(2), nil
	}}
	f := newTestFunnel([]Source{src}, nil)
	memo := NewMemo()

	_, err := f.Run(context.Background(), Request{Queries: []string{"bag", "bag", "shoes"}, Memo: memo})
	require.NoError(t, err)
	_, err = f.Run(context.Background(), Request{Queries: []string{"shoes", "bag"}, Memo: memo})
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestFunnel_CapsQueriesAtThree(t *testing.T) {
	src := &fakeSource{name: "a"}
	_, err := newTestFunnel([]Source{src}, nil).Run(context.Background(), Request{Queries: []string{"a", "b", "", "c", "d"}})
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load())
}

type mapCache struct {
	data map[string][]Product
}

func (c *mapCache) Get(_ context.Context, key string) ([]Product, bool) {
	p, ok := c.data[key]
	return p, ok
}

func (c *mapCache) Set(_ context.Context, key string, products []Product) {
	c.data[key] = products
}

func TestFunnel_UsesSearchCacheAcrossRuns(t *testing.T) {
	src := &fakeSource{name: "a", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
		return products(2), nil
	}}
	f := newTestFunnel([]Source{src}, nil, WithCache(&mapCache{data: map[string][]Product{}}))

	for i := 0; i < 3; i++ {
		results, err := f.Run(context.Background(), Request{Queries: []string{"bag"}})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestFunnelProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("never more than min(limit, 5), sorted by score, marked up", prop.ForAll(
		func(ps []Product, limit int) bool {
			src := &fakeSource{name: "gen", searchFn: func(context.Context, SearchOptions) ([]Product, error) {
				return ps, nil
			}}
			results, err := newTestFunnel([]Source{src}, nil).Run(context.Background(), Request{Queries: []string{"q"}, Limit: limit})
			if err != nil {
				return false
			}

			maxLen := MaxResults
			if limit > 0 && limit < maxLen {
				maxLen = limit
			}
			if len(results) > maxLen {
				return false
			}
			if !sort.SliceIsSorted(results, func(i, j int) bool {
				return results[i].Product.Score() > results[j].Product.Score()
			}) {
				return false
			}
			for _, r := range results {
				diff := r.Product.Price - r.Product.SupplierPrice*MarkupMultiplier
				if math.Abs(diff) > 1e-9*math.Max(1, math.Abs(r.Product.Price)) {
					return false
				}
				if !PassesQuality(r.Product) || !PassesText(r.Product) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genProduct()),
		gen.IntRange(-1, 10),
	))

	properties.TestingRun(t)
}
