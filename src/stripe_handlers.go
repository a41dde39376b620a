package main

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

// stripeWebhookRoute lands gateway results. The engine treats late or
// duplicate results idempotently, so the route never retries on its own.
func stripeWebhookRoute(g *gin.Engine) {
	g.POST("/webhooks/stripe", func(ctx *gin.Context) {
		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		sbody := string(body)
		if !gjson.Valid(sbody) {
			log.Println("[stripe] Received invalid json body. Aborting")
			ctx.Status(http.StatusBadRequest)
			return
		}
		eventType := gjson.Get(sbody, "type").String()
		ref := gjson.Get(sbody, "data.object.client_reference_id").String()
		regId, err := strconv.Atoi(ref)
		if err != nil {
			log.Printf("[stripe] Missing client reference on %s event\n", eventType)
			ctx.Status(http.StatusOK)
			return
		}

		switch eventType {
		case "checkout.session.completed":
			err = engine.ConfirmPayment(ctx.Request.Context(), uint(regId))
		case "checkout.session.expired", "payment_intent.payment_failed":
			err = engine.RejectPayment(ctx.Request.Context(), uint(regId))
		default:
			log.Printf("[stripe] Ignoring event type %s\n", eventType)
			ctx.Status(http.StatusOK)
			return
		}
		if err != nil {
			log.Printf("[stripe] Error processing %s for registration %d: %s\n", eventType, regId, err.Error())
			ctx.Status(http.StatusUnprocessableEntity)
			return
		}
		ctx.Status(http.StatusOK)
	})
}
