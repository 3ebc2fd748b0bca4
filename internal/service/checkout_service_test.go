package service

import (
	"context"
	"errors"
	"testing"

	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/pkg/serverutils"
	"desirefinder-be/pkg/dropshipping"
	"desirefinder-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revalidatorFunc func(ctx context.Context, stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error)

func (f revalidatorFunc) Revalidate(ctx context.Context, stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
	return f(ctx, stored, baseline)
}

type fakeGateway struct {
	err    error
	orders []*entity.Order
}

func (g *fakeGateway) CreatePayment(ctx context.Context, order *entity.Order, product *entity.Product) (*PaymentLink, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.orders = append(g.orders, order)
	return &PaymentLink{Token: "snap-token", RedirectURL: "https://pay.example/" + order.Id.String()}, nil
}

type recordingOrders struct {
	events []events.OrderCreated
}

func (r *recordingOrders) PublishOrderCreated(ctx context.Context, ev events.OrderCreated) error {
	r.events = append(r.events, ev)
	return nil
}

type outcomeCounter map[string]int

func (c outcomeCounter) RevalidationOutcome(outcome string) { c[outcome]++ }

func vettedPayload() *dropshipping.Product {
	inStock := true
	return &dropshipping.Product{
		ID:                "ae-1001",
		SupplierProductID: "ae-1001",
		Source:            "aliexpress",
		Name:              "Walnut desk organizer",
		Price:             50,
		SupplierPrice:     20,
		Currency:          "USD",
		Rating:            4.8,
		Orders:            900,
		InStock:           &inStock,
	}
}

func live(supplierPrice float64) dropshipping.Product {
	p := *vettedPayload()
	p.SupplierPrice = supplierPrice
	return dropshipping.ApplyMarkup(p)
}

func TestCheckoutService_Import(t *testing.T) {
	tests := []struct {
		name              string
		req               dto.ImportProductRequest
		revalidate        func(stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error)
		wantCode          int
		wantOutcome       string
		wantSupplierPrice float64
		wantUnitPrice     float64
		wantVerified      bool
	}{
		{
			name: "price unchanged",
			req:  dto.ImportProductRequest{ProductData: vettedPayload()},
			revalidate: func(stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
				return &dropshipping.Revalidation{Live: live(20)}, nil
			},
			wantOutcome:       RevalidationOK,
			wantSupplierPrice: 20,
			wantUnitPrice:     50,
			wantVerified:      true,
		},
		{
			name: "small drift reprices",
			req:  dto.ImportProductRequest{ProductData: vettedPayload()},
			revalidate: func(stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
				return &dropshipping.Revalidation{Live: live(21), DriftPercent: 5, ShouldPersist: true}, nil
			},
			wantOutcome:       RevalidationRepriced,
			wantSupplierPrice: 21,
			wantUnitPrice:     52.5,
			wantVerified:      true,
		},
		{
			name: "supplier down keeps stored price",
			req:  dto.ImportProductRequest{ProductData: vettedPayload()},
			revalidate: func(stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
				return &dropshipping.Revalidation{Live: stored, ProviderUnavailable: true}, nil
			},
			wantOutcome:       RevalidationProviderUnavailable,
			wantSupplierPrice: 20,
			wantUnitPrice:     50,
			wantVerified:      false,
		},
		{
			name: "large drift aborts",
			req:  dto.ImportProductRequest{ProductData: vettedPayload(), ExpectedCost: 20},
			revalidate: func(stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
				return nil, &dropshipping.DriftError{OldPrice: baseline, NewPrice: 25, DriftPercent: 25}
			},
			wantCode:    409,
			wantOutcome: RevalidationDrift,
		},
		{
			name: "product gone",
			req:  dto.ImportProductRequest{ProductData: vettedPayload()},
			revalidate: func(stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
				return nil, dropshipping.ErrProductGone
			},
			wantCode:    409,
			wantOutcome: RevalidationGone,
		},
		{
			name: "out of stock",
			req:  dto.ImportProductRequest{ProductData: vettedPayload()},
			revalidate: func(stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
				return nil, dropshipping.ErrOutOfStock
			},
			wantCode:    409,
			wantOutcome: RevalidationOutOfStock,
		},
		{
			name:     "unknown id without payload",
			req:      dto.ImportProductRequest{SupplierProductId: "never-seen"},
			wantCode: 404,
		},
		{
			name:     "empty request",
			req:      dto.ImportProductRequest{},
			wantCode: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemDB()
			gateway := &fakeGateway{}
			orders := &recordingOrders{}
			outcomes := outcomeCounter{}
			reval := revalidatorFunc(func(ctx context.Context, stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
				require.NotNil(t, tt.revalidate, "revalidation not expected")
				return tt.revalidate(stored, baseline)
			})

			svc := NewCheckoutService(db, newCreditService(db), reval, gateway, orders, outcomes, nopLogger)
			userId := uuid.New()

			res, err := svc.Import(context.Background(), userId, &tt.req)

			if tt.wantOutcome != "" {
				assert.Equal(t, 1, outcomes[tt.wantOutcome])
			}
			if tt.wantCode != 0 {
				var appErr *serverutils.AppError
				require.True(t, errors.As(err, &appErr), "got %v", err)
				assert.Equal(t, tt.wantCode, appErr.Code)
				assert.Empty(t, db.orders)
				assert.Empty(t, orders.events)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUnitPrice, res.UnitPrice)
			assert.Equal(t, tt.wantVerified, res.PriceVerified)
			assert.Equal(t, "snap-token", res.PaymentToken)
			assert.Equal(t, entity.OrderStatusPending, res.Status)

			require.Len(t, db.orders, 1)
			order := db.orders[0]
			assert.Equal(t, tt.wantSupplierPrice, order.SupplierPrice)
			assert.Equal(t, tt.wantUnitPrice, order.UnitPrice)
			assert.Equal(t, 1, order.Quantity)
			require.NotNil(t, order.PaymentUrl)

			require.Len(t, db.products, 1)
			assert.Equal(t, "ae-1001", db.products[0].SupplierProductId)
			assert.Equal(t, tt.wantUnitPrice, db.products[0].Price)

			require.Len(t, orders.events, 1)
			assert.Equal(t, order.Id, orders.events[0].OrderId)
		})
	}
}

func TestCheckoutService_DriftDetails(t *testing.T) {
	db := newMemDB()
	reval := revalidatorFunc(func(ctx context.Context, stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
		return nil, &dropshipping.DriftError{OldPrice: baseline, NewPrice: 23, DriftPercent: 15}
	})
	svc := NewCheckoutService(db, newCreditService(db), reval, nil, nil, nil, nopLogger)

	_, err := svc.Import(context.Background(), uuid.New(), &dto.ImportProductRequest{ProductData: vettedPayload(), ExpectedCost: 20})

	var appErr *serverutils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.ErrorIs(t, err, dropshipping.ErrPriceDrift)
	assert.Equal(t, dto.PriceDriftDetails{PriceChange: "15.0%", OldPrice: 20, NewPrice: 23}, appErr.Details)
}

func TestCheckoutService_ReusesStoredProduct(t *testing.T) {
	db := newMemDB()
	stored := &entity.Product{
		Id: uuid.New(), SupplierProductId: "cj-7", Source: "cj", Name: "Desk mat",
		Price: 25, SupplierPrice: 10, Currency: "USD", InStock: true,
	}
	db.products = []*entity.Product{stored}

	var seen dropshipping.Product
	reval := revalidatorFunc(func(ctx context.Context, p dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
		seen = p
		return &dropshipping.Revalidation{Live: p}, nil
	})
	svc := NewCheckoutService(db, newCreditService(db), reval, nil, nil, nil, nopLogger)

	res, err := svc.Import(context.Background(), uuid.New(), &dto.ImportProductRequest{SupplierProductId: "cj-7", Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, stored.Id, res.ProductId)
	assert.Equal(t, "cj", seen.Source)
	assert.Equal(t, 10.0, seen.SupplierPrice)
	assert.Empty(t, res.PaymentUrl)
	require.Len(t, db.orders, 1)
	assert.Equal(t, 2, db.orders[0].Quantity)
	assert.Len(t, db.products, 1)
}

func TestCheckoutService_GatewayFailure(t *testing.T) {
	db := newMemDB()
	reval := revalidatorFunc(func(ctx context.Context, p dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error) {
		return &dropshipping.Revalidation{Live: p}, nil
	})
	svc := NewCheckoutService(db, newCreditService(db), reval, &fakeGateway{err: errors.New("snap down")}, nil, nil, nopLogger)

	_, err := svc.Import(context.Background(), uuid.New(), &dto.ImportProductRequest{ProductData: vettedPayload()})

	var appErr *serverutils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 502, appErr.Code)
}
