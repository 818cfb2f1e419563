package main

import (
	"errors"
	"etix/src/config"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/types"
	"etix/src/utils"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func checkoutRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		POST("/checkout/session", func(ctx *gin.Context) {
			var body types.CreateCheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			var event models.Event
			db := db.GetDb()
			if err := db.Where("id = ?", body.EventID).First(&event).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, http.StatusNotFound, types.ErrCodeNotFound, "event not found")
					return
				}
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not retrieve event")
				return
			}
			if !event.IsActive {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeEventInactive, "registration for this event is closed")
				return
			}
			stats, err := utils.GetEventStats(db, &event)
			if err != nil {
				log.Printf("Error computing stats for event [%d]: %s\n", event.ID, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not check capacity")
				return
			}
			if stats.Remaining < int64(body.Quantity) {
				respondError(ctx, http.StatusConflict, types.ErrCodeCapacityExceeded, "not enough tickets remaining")
				return
			}

			// No local writes here: attendee rows are created only when the
			// payment-completed webhook arrives, so abandoned checkouts never
			// leave orphaned pending rows.
			session, err := lib.CreateCheckoutSession(&body, &event)
			if err != nil {
				log.Printf("Error creating checkout session for event [%d]: %s\n", event.ID, err.Error())
				respondError(ctx, http.StatusBadGateway, types.ErrCodeUpstream, "payment provider is unavailable")
				return
			}
			log.Printf("[Checkout] session %s created for event [%d] qty=%d\n", session.ID, event.ID, body.Quantity)
			ctx.JSON(http.StatusOK, gin.H{"url": session.URL, "id": session.ID})
		}).
		GET("/checkout/success", func(ctx *gin.Context) {
			sessionId := ctx.Query("session_id")
			if sessionId == "" {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, "session_id is required")
				return
			}
			session, err := lib.RetrieveCheckoutSession(sessionId)
			if err != nil {
				log.Printf("Error retrieving checkout session [%s]: %s\n", sessionId, err.Error())
				respondError(ctx, http.StatusBadGateway, types.ErrCodeUpstream, "payment provider is unavailable")
				return
			}

			var attendees []models.Attendee
			db := db.GetDb()
			if err := db.
				Where("stripe_session_id = ?", sessionId).
				Order("id ASC").
				Find(&attendees).
				Error; err != nil {
				log.Printf("Error listing attendees for session [%s]: %s\n", sessionId, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not retrieve tickets")
				return
			}
			codes := make([]string, 0, len(attendees))
			for _, a := range attendees {
				codes = append(codes, a.Code)
			}

			resp := gin.H{
				"ok":             true,
				"session_id":     sessionId,
				"payment_status": session.PaymentStatus,
				"codes":          codes,
			}
			if len(attendees) > 0 {
				var event models.Event
				if err := db.Where("id = ?", attendees[0].EventID).First(&event).Error; err == nil {
					start := eventStart(&event)
					end := start.Add(4 * time.Hour)
					guestUrl := fmt.Sprintf("%s/success?session_id=%s", config.AppURL(), url.QueryEscape(sessionId))
					ics := utils.GenerateICS(event.Name, "Bring your QR code", event.Location, start, end)
					resp["ics_data_url"] = fmt.Sprintf("data:text/calendar;charset=utf-8,%s", url.PathEscape(ics))
					resp["google_calendar_url"] = utils.GoogleCalendarURL(event.Name, "Keep this QR handy:\n"+guestUrl, event.Location, start, end)
				}
			}
			ctx.JSON(http.StatusOK, resp)
		}).
		GET("/config", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{
				"publishable_key": os.Getenv("STRIPE_PUBLISHABLE_KEY"),
				"currency":        config.Currency(),
				"app_url":         config.AppURL(),
			})
		})
	return apiv1
}

func eventStart(event *models.Event) time.Time {
	start := event.EventDate
	if t, err := time.Parse(config.TIME_PARSE_FORMAT, event.EventTime); err == nil {
		start = time.Date(start.Year(), start.Month(), start.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	}
	return start
}
