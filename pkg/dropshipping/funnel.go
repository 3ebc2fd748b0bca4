package dropshipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"desirefinder-be/internal/pkg/logger"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const MaxQueries = 3

var tracer = otel.Tracer("desirefinder-be/pkg/dropshipping")

type Config struct {
	PageSize      int
	ShipTo        string
	SortBy        string
	SourceTimeout time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	VisionEnabled bool
}

// Observer receives funnel counters. Stage names: merged, quality, prerank,
// text, vision, final.
type Observer interface {
	StageCount(stage string, n int)
	VisionVerdict(verdict string)
	SourceError(source string)
}

type nopObserver struct{}

func (nopObserver) StageCount(string, int) {}
func (nopObserver) VisionVerdict(string)   {}
func (nopObserver) SourceError(string)     {}

// Request is one funnel run. Memo scopes deduplication to the caller's
// turn; a nil Memo dedupes within this run only.
type Request struct {
	Queries []string
	Limit   int
	Memo    *Memo
}

// VettedResult is a product that survived every stage, priced for display.
type VettedResult struct {
	Product Product
}

type Funnel struct {
	sources  []Source
	judge    ImageJudge
	cache    SearchCache
	cfg      Config
	logger   logger.ILogger
	observer Observer
}

type Option func(*Funnel)

func WithCache(c SearchCache) Option {
	return func(f *Funnel) { f.cache = c }
}

func WithObserver(o Observer) Option {
	return func(f *Funnel) {
		if o != nil {
			f.observer = o
		}
	}
}

func NewFunnel(sources []Source, judge ImageJudge, cfg Config, logger logger.ILogger, opts ...Option) *Funnel {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.ShipTo == "" {
		cfg.ShipTo = "US"
	}
	if cfg.SortBy == "" {
		cfg.SortBy = SortOrdersDesc
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	f := &Funnel{
		sources:  sources,
		judge:    judge,
		cfg:      cfg,
		logger:   logger,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Funnel) Sources() []Source {
	return f.sources
}

// Run searches every source for every query and vets the merged candidates.
// Source failures degrade the result, they never fail the run.
func (f *Funnel) Run(ctx context.Context, req Request) ([]VettedResult, error) {
	ctx, span := tracer.Start(ctx, "funnel.run")
	defer span.End()

	queries := cleanQueries(req.Queries)
	span.SetAttributes(attribute.StringSlice("funnel.queries", queries))

	memo := req.Memo
	if memo == nil {
		memo = NewMemo()
	}

	perQuery := make([][]Product, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			opts := SearchOptions{Query: q, Limit: f.cfg.PageSize, ShipTo: f.cfg.ShipTo, SortBy: f.cfg.SortBy}
			products, err := memo.Do(opts, func() ([]Product, error) {
				return f.searchAll(gctx, opts), nil
			})
			if err != nil {
				return err
			}
			perQuery[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []Product
	for _, products := range perQuery {
		merged = append(merged, products...)
	}
	f.observer.StageCount("merged", len(merged))

	qualified := QualityFilter(merged)
	f.observer.StageCount("quality", len(qualified))

	candidates := top(Rank(qualified), PreRankSize)
	f.observer.StageCount("prerank", len(candidates))

	candidates = TextFilter(candidates)
	f.observer.StageCount("text", len(candidates))

	candidates = f.visualCheck(ctx, candidates)
	f.observer.StageCount("vision", len(candidates))

	limit := req.Limit
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}
	final := top(Rank(candidates), limit)
	f.observer.StageCount("final", len(final))

	results := make([]VettedResult, len(final))
	for i, p := range final {
		results[i] = VettedResult{Product: ApplyMarkup(p)}
	}

	f.logger.Info("FUNNEL", "Funnel run finished", map[string]interface{}{
		"queries":   queries,
		"merged":    len(merged),
		"qualified": len(qualified),
		"returned":  len(results),
	})
	return results, nil
}

func cleanQueries(queries []string) []string {
	out := make([]string, 0, MaxQueries)
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == MaxQueries {
			break
		}
	}
	return out
}

// searchAll fans one query out to every source. Sources that fail
// contribute nothing.
func (f *Funnel) searchAll(ctx context.Context, opts SearchOptions) []Product {
	perSource := make([][]Product, len(f.sources))

	var g errgroup.Group
	for i, src := range f.sources {
		g.Go(func() error {
			products, err := f.searchSource(ctx, src, opts)
			if err != nil {
				f.observer.SourceError(src.Name())
				f.logger.Warn("FUNNEL", "Supplier search failed", map[string]interface{}{
					"source": src.Name(),
					"query":  opts.Query,
					"error":  err.Error(),
				})
				return nil
			}
			perSource[i] = products
			return nil
		})
	}
	_ = g.Wait()

	var all []Product
	for _, products := range perSource {
		all = append(all, products...)
	}
	return all
}

func (f *Funnel) searchSource(ctx context.Context, src Source, opts SearchOptions) ([]Product, error) {
	key := CacheKey(src.Name(), opts)
	if f.cache != nil {
		if products, ok := f.cache.Get(ctx, key); ok {
			return products, nil
		}
	}

	attempt := func() ([]Product, error) {
		actx := ctx
		if f.cfg.SourceTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, f.cfg.SourceTimeout)
			defer cancel()
		}
		products, err := src.Search(actx, opts)
		if err != nil && !isRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return products, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.cfg.RetryInterval

	products, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(f.cfg.MaxRetries)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			f.logger.Debug("FUNNEL", "Retrying supplier search", map[string]interface{}{
				"source": src.Name(),
				"wait":   wait.String(),
				"error":  err.Error(),
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s search %q: %w", src.Name(), opts.Query, err)
	}

	if f.cache != nil {
		f.cache.Set(ctx, key, products)
	}
	return products, nil
}

// visualCheck runs the image judge concurrently. No image means reject even
// with the judge off; a judge error means accept.
func (f *Funnel) visualCheck(ctx context.Context, candidates []Product) []Product {
	judging := f.cfg.VisionEnabled && f.judge != nil

	keep := make([]bool, len(candidates))
	var g errgroup.Group
	for i, p := range candidates {
		if p.ImageURL == "" {
			f.observer.VisionVerdict("no_image")
			continue
		}
		if !judging {
			keep[i] = true
			continue
		}
		g.Go(func() error {
			ok, err := f.judge.Judge(ctx, p)
			if err != nil {
				f.observer.VisionVerdict("error")
				f.logger.Warn("FUNNEL", "Image check failed, keeping product", map[string]interface{}{
					"product_id": p.ID,
					"error":      err.Error(),
				})
				keep[i] = true
				return nil
			}
			if ok {
				f.observer.VisionVerdict("accept")
			} else {
				f.observer.VisionVerdict("reject")
			}
			keep[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Product, 0, len(candidates))
	for i, p := range candidates {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
