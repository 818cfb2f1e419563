package lib

import (
	"context"
	"etix/src/config"
	"etix/src/models"
	"etix/src/types"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"
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

const stripeCallTimeout = 15 * time.Second

// unitAmount converts a price in major units to minor units. Rounded, not
// truncated: 19.99 stored as a float is fractionally below 1999 cents.
func unitAmount(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateCheckoutSession opens a hosted checkout for the given registration.
// The registration details travel as session metadata so the webhook handler
// can reconcile without any local pending state.
func CreateCheckoutSession(params *types.CreateCheckoutRequestBody, event *models.Event) (*stripe.CheckoutSession, error) {
	sc := GetStripeClient()
	appURL := config.AppURL()
	successUrl := fmt.Sprintf("%s/success?session_id={CHECKOUT_SESSION_ID}", appURL)
	cancelUrl := fmt.Sprintf("%s/register?canceled=true", appURL)

	metadata := map[string]string{
		"event_id": strconv.FormatUint(uint64(event.ID), 10),
		"name":     params.Name,
		"email":    params.Email,
		"phone":    params.Phone,
		"quantity": strconv.FormatUint(uint64(params.Quantity), 10),
	}

	lineItem := &stripe.CheckoutSessionCreateLineItemParams{
		Quantity: stripe.Int64(int64(params.Quantity)),
	}
	if event.StripePriceId != nil && *event.StripePriceId != "" {
		lineItem.Price = event.StripePriceId
	} else {
		lineItem.PriceData = &stripe.CheckoutSessionCreateLineItemPriceDataParams{
			Currency:   stripe.String(config.Currency()),
			UnitAmount: stripe.Int64(unitAmount(event.Price)),
			ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
				Name: stripe.String(event.Name),
			},
		}
	}

	createParams := stripe.CheckoutSessionCreateParams{
		Mode:          stripe.String("payment"),
		UIMode:        stripe.String("hosted"),
		SuccessURL:    stripe.String(successUrl),
		CancelURL:     stripe.String(cancelUrl),
		CustomerEmail: stripe.String(params.Email),
		LineItems:     []*stripe.CheckoutSessionCreateLineItemParams{lineItem},
		Metadata:      metadata,
	}

	ctx, cancel := context.WithTimeout(context.Background(), stripeCallTimeout)
	defer cancel()
	return sc.V1CheckoutSessions.Create(ctx, &createParams)
}

func RetrieveCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	sc := GetStripeClient()
	ctx, cancel := context.WithTimeout(context.Background(), stripeCallTimeout)
	defer cancel()
	return sc.V1CheckoutSessions.Retrieve(ctx, id, nil)
}
