package dropshipping

import (
	"context"
	"errors"
	"fmt"
	"math"

	"desirefinder-be/internal/pkg/logger"
)

const (
	MaxPriceDriftPercent = 10.0
	PersistDriftPercent  = 0.1
)

var (
	ErrProductGone = errors.New("product is no longer available")
	ErrPriceDrift  = errors.New("supplier price changed significantly")
	ErrOutOfStock  = errors.New("product is out of stock")
)

// DriftError carries the prices behind an ErrPriceDrift abort.
type DriftError struct {
	OldPrice     float64
	NewPrice     float64
	DriftPercent float64
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%s: %.1f%% (%.2f -> %.2f)", ErrPriceDrift, e.DriftPercent, e.OldPrice, e.NewPrice)
}

func (e *DriftError) Unwrap() error {
	return ErrPriceDrift
}

type Revalidation struct {
	// Live is the freshly fetched product with display pricing applied, or
	// the stored product when the provider was unreachable.
	Live                Product
	DriftPercent        float64
	ShouldPersist       bool
	ProviderUnavailable bool
}

// SupplierPrice is the cost basis the order should be booked at.
func (r *Revalidation) SupplierPrice() float64 {
	return r.Live.SupplierPrice
}

type Revalidator struct {
	sources []Source
	byName  map[string]Source
	logger  logger.ILogger
}

func NewRevalidator(sources []Source, logger logger.ILogger) *Revalidator {
	byName := make(map[string]Source, len(sources))
	for _, s := range sources {
		byName[s.Name()] = s
	}
	return &Revalidator{sources: sources, byName: byName, logger: logger}
}

// Revalidate re-checks a stored product right before purchase. baseline is
// the supplier price the shopper was shown; zero means the stored one.
func (r *Revalidator) Revalidate(ctx context.Context, stored Product, baseline float64) (*Revalidation, error) {
	if baseline <= 0 {
		baseline = stored.SupplierPrice
	}

	live, err := r.fetch(ctx, stored)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProductGone
	}
	if err != nil {
		// checkout stays available when the supplier is down
		r.logger.Warn("REVALIDATE", "Price validation failed, using stored price", map[string]interface{}{
			"supplier_product_id": stored.SupplierID(),
			"error":               err.Error(),
		})
		return &Revalidation{Live: stored, ProviderUnavailable: true}, nil
	}

	livePrice := live.SupplierPrice
	if livePrice == 0 {
		livePrice = live.Price
	}
	live.SupplierPrice = livePrice
	live = ApplyMarkup(live)

	drift := DriftPercent(baseline, livePrice)
	if drift > MaxPriceDriftPercent {
		return nil, &DriftError{OldPrice: baseline, NewPrice: livePrice, DriftPercent: drift}
	}
	if !live.Available() {
		return nil, ErrOutOfStock
	}

	return &Revalidation{
		Live:          live,
		DriftPercent:  drift,
		ShouldPersist: drift > PersistDriftPercent || (baseline == 0 && livePrice > 0),
	}, nil
}

func (r *Revalidator) fetch(ctx context.Context, stored Product) (Product, error) {
	candidates := r.sources
	if src, ok := r.byName[stored.Source]; ok {
		candidates = []Source{src}
	}

	for _, src := range candidates {
		p, err := src.Get(ctx, stored.SupplierID())
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		if err != nil {
			return Product{}, err
		}
		if p.Source == "" {
			p.Source = src.Name()
		}
		return *p, nil
	}
	return Product{}, ErrUnsupported
}

// DriftPercent is the absolute price change relative to old, in percent.
// An unknown old price counts as no drift.
func DriftPercent(oldPrice, newPrice float64) float64 {
	if oldPrice == 0 {
		return 0
	}
	return math.Abs((newPrice-oldPrice)/oldPrice) * 100
}
