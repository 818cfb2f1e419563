package main

import (
	"encoding/json"
	"errors"
	"etix/src/lib/mailer"
	"etix/src/utils"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// stripeWebhookRoute registers the payment webhook. It reads the request
// body itself: signature verification must run over the exact bytes
// received, so no JSON-binding middleware may touch this route first.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			var cs stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			log.Printf("[CheckoutSession] ID: %s %s\n", cs.ID, cs.Status)
			evt, attendees, created, err := utils.CreateAttendeesFromSession(&cs)
			if err != nil {
				// Conflicts are acknowledged: a redelivery cannot succeed
				// where the first attempt found no capacity or bad metadata.
				if errors.Is(err, utils.ErrCapacityExceeded) ||
					errors.Is(err, utils.ErrEventInactive) ||
					errors.Is(err, utils.ErrInvalidMetadata) {
					log.Printf("[Webhook] Session %s not reconciled: %s\n", cs.ID, err.Error())
					break
				}
				// Transient failure: 500 so the provider redelivers. Safe
				// because the duplicate-session check above makes replays
				// no-ops once the rows exist.
				log.Printf("[Webhook] Error reconciling session %s: %s\n", cs.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if created {
				log.Printf("[Webhook] Created %d attendee(s) for session %s\n", len(attendees), cs.ID)
				go func() {
					if err := mailer.SendTicketEmail(evt, attendees); err != nil {
						log.Printf("Error sending ticket email for session %s: %s\n", cs.ID, err.Error())
					}
				}()
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"received": true})
	})
	return apiv1
}
