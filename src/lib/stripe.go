package lib

import (
	"context"
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v82"

	"ers/src/models"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// StripeGateway authorizes deposit charges through Stripe checkout sessions.
// The capture result comes back through the webhook route.
type StripeGateway struct{}

func (g *StripeGateway) Authorize(ctx context.Context, reg *models.Registration) (string, error) {
	sc := GetStripeClient()
	currency := os.Getenv("PAYMENT_CURRENCY")
	if currency == "" {
		currency = "brl"
	}
	appHost := os.Getenv("APP_HOST")
	params := stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(int64(reg.FinalPrice * 100)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Event deposit: registration %d", reg.ID)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(fmt.Sprintf("%d", reg.ID)),
		SuccessURL:        stripe.String(fmt.Sprintf("%s/registrations/%d", appHost, reg.ID)),
	}
	if reg.ExpiresAt != nil {
		params.ExpiresAt = stripe.Int64(reg.ExpiresAt.Unix())
	}
	session, err := sc.V1CheckoutSessions.Create(ctx, &params)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}
