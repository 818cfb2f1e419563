package main

import (
	"errors"
	"etix/src/config"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"etix/src/utils"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func publicEventRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/events", func(ctx *gin.Context) {
			var events []models.Event
			db := db.GetDb()
			if err := db.
				Where("is_active = ?", true).
				Order("event_date ASC").
				Find(&events).
				Error; err != nil {
				log.Printf("Error listing events: %s\n", err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not list events")
				return
			}
			for i := range events {
				stats, err := utils.GetEventStats(db, &events[i])
				if err != nil {
					log.Printf("Error computing stats for event [%d]: %s\n", events[i].ID, err.Error())
					continue
				}
				events[i].Stats = stats
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			var event models.Event
			db := db.GetDb()
			if err := db.Where("id = ?", params.ID).First(&event).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, http.StatusNotFound, types.ErrCodeNotFound, "event not found")
					return
				}
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not retrieve event")
				return
			}
			stats, err := utils.GetEventStats(db, &event)
			if err != nil {
				log.Printf("Error computing stats for event [%d]: %s\n", event.ID, err.Error())
			} else {
				event.Stats = stats
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		})
	return apiv1
}

func eventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			eventDate, err := time.Parse(config.DATE_PARSE_FORMAT, body.EventDate)
			if err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, "event_date must be formatted as YYYY-MM-DD")
				return
			}
			if _, err := time.Parse(config.TIME_PARSE_FORMAT, body.EventTime); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, "event_time must be formatted as HH:MM")
				return
			}
			var description *string
			if body.Description != "" {
				description = &body.Description
			}
			event := models.Event{
				Name:          body.Name,
				Slug:          slug.Make(body.Name),
				Description:   description,
				Location:      body.Location,
				EventDate:     eventDate,
				EventTime:     body.EventTime,
				Price:         body.Price,
				Capacity:      body.Capacity,
				StripePriceId: body.StripePriceID,
				IsActive:      true,
			}
			db := db.GetDb()
			if err := db.Create(&event).Error; err != nil {
				log.Printf("Error creating event: %s\n", err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not create event")
				return
			}
			log.Printf("[Event] created id=%d name=%s\n", event.ID, event.Name)
			ctx.JSON(http.StatusCreated, gin.H{"id": event.ID})
		}).
		PUT("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			var body types.UpdateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
				updates["slug"] = slug.Make(*body.Name)
			}
			if body.Description != nil {
				updates["description"] = *body.Description
			}
			if body.Location != nil {
				updates["location"] = *body.Location
			}
			if body.EventDate != nil {
				eventDate, err := time.Parse(config.DATE_PARSE_FORMAT, *body.EventDate)
				if err != nil {
					respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, "event_date must be formatted as YYYY-MM-DD")
					return
				}
				updates["event_date"] = eventDate
			}
			if body.EventTime != nil {
				if _, err := time.Parse(config.TIME_PARSE_FORMAT, *body.EventTime); err != nil {
					respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, "event_time must be formatted as HH:MM")
					return
				}
				updates["event_time"] = *body.EventTime
			}
			if body.Price != nil {
				updates["price"] = *body.Price
			}
			if body.Capacity != nil {
				updates["capacity"] = *body.Capacity
			}
			if body.StripePriceID != nil {
				updates["stripe_price_id"] = *body.StripePriceID
			}
			if body.IsActive != nil {
				updates["is_active"] = *body.IsActive
			}
			var event models.Event
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where("id = ?", params.ID).First(&event).Error; err != nil {
					return err
				}
				if len(updates) == 0 {
					return nil
				}
				return tx.Model(&event).Updates(updates).Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, http.StatusNotFound, types.ErrCodeNotFound, "event not found")
					return
				}
				log.Printf("Error updating event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not update event")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		DELETE("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			hard := ctx.Query("hard") == "true"
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var event models.Event
				if err := tx.Where("id = ?", params.ID).First(&event).Error; err != nil {
					return err
				}
				if hard {
					var count int64
					if err := tx.
						Model(&models.Attendee{}).
						Where("event_id = ?", params.ID).
						Count(&count).
						Error; err != nil {
						return err
					}
					if count > 0 {
						return errHasAttendees
					}
					return tx.Unscoped().Delete(&event).Error
				}
				return tx.Model(&event).Update("is_active", false).Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, http.StatusNotFound, types.ErrCodeNotFound, "event not found")
					return
				}
				if errors.Is(err, errHasAttendees) {
					respondError(ctx, http.StatusBadRequest, types.ErrCodeHasAttendees, "cannot hard delete an event with attendees")
					return
				}
				log.Printf("Error deleting event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not delete event")
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/events/:id/attendees", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			var attendees []models.Attendee
			db := db.GetDb()
			if err := db.
				Where("event_id = ?", params.ID).
				Order("created_at DESC").
				Find(&attendees).
				Error; err != nil {
				log.Printf("Error listing attendees for event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not list attendees")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": attendees})
		}).
		GET("/events/:id/summary", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			summary, err := utils.GetEventSummary(params.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, http.StatusNotFound, types.ErrCodeNotFound, "event not found")
					return
				}
				log.Printf("Error computing summary for event [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not compute summary")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		})
	return g
}

var errHasAttendees = errors.New("event has attendees")
