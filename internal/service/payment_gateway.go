package service

import (
	"context"
	"fmt"
	"math"

	"desirefinder-be/internal/entity"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

type PaymentLink struct {
	Token       string
	RedirectURL string
}

// PaymentGateway creates the hosted payment page for an order. Settlement is
// handled by the provider.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, order *entity.Order, product *entity.Product) (*PaymentLink, error)
}

type midtransGateway struct {
	client    snap.Client
	finishURL string
}

func NewMidtransGateway(serverKey string, isProduction bool, finishURL string) PaymentGateway {
	env := midtrans.Sandbox
	if isProduction {
		env = midtrans.Production
	}

	g := &midtransGateway{finishURL: finishURL}
	g.client.New(serverKey, env)
	return g
}

func (g *midtransGateway) CreatePayment(ctx context.Context, order *entity.Order, product *entity.Product) (*PaymentLink, error) {
	unit := int64(math.Round(order.UnitPrice))
	gross := unit * int64(order.Quantity)

	name := product.Name
	// midtrans rejects item names over 50 chars
	if runes := []rune(name); len(runes) > 50 {
		name = string(runes[:50])
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.Id.String(),
			GrossAmt: gross,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: g.finishURL,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    product.Id.String(),
				Price: unit,
				Qty:   int32(order.Quantity),
				Name:  name,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	resp, midErr := g.client.CreateTransaction(req)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}
	return &PaymentLink{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}
