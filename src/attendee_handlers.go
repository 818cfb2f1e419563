package main

import (
	"errors"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func attendeeHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/attendees", func(ctx *gin.Context) {
			q := ctx.Query("q")
			var attendees []models.Attendee
			db := db.GetDb()
			query := db.Model(&models.Attendee{}).Order("created_at DESC")
			if q != "" {
				pattern := "%" + q + "%"
				query = query.Where("name ILIKE ? OR email ILIKE ? OR code ILIKE ?", pattern, pattern, pattern)
			}
			if err := query.Find(&attendees).Error; err != nil {
				log.Printf("Error listing attendees: %s\n", err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not list attendees")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": attendees})
		}).
		PUT("/attendees/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			var body types.UpdateAttendeeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
			}
			if body.Email != nil {
				updates["email"] = *body.Email
			}
			if body.Phone != nil {
				updates["phone"] = *body.Phone
			}
			var attendee models.Attendee
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where("id = ?", params.ID).First(&attendee).Error; err != nil {
					return err
				}
				if len(updates) == 0 {
					return nil
				}
				return tx.Model(&attendee).Updates(updates).Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, http.StatusNotFound, types.ErrCodeNotFound, "attendee not found")
					return
				}
				log.Printf("Error updating attendee [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not update attendee")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": attendee})
		}).
		DELETE("/attendees/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var attendee models.Attendee
				if err := tx.Where("id = ?", params.ID).First(&attendee).Error; err != nil {
					return err
				}
				// Soft delete keeps the row so the code is never reused.
				return tx.Delete(&attendee).Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, http.StatusNotFound, types.ErrCodeNotFound, "attendee not found")
					return
				}
				log.Printf("Error deleting attendee [%d]: %s\n", params.ID, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not delete attendee")
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/attendees/:code/checkin", func(ctx *gin.Context) {
			var params types.CodeURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, err.Error())
				return
			}
			var attendee models.Attendee
			db := db.GetDb()
			// Deliberately a toggle: scanning twice flips the flag back so
			// staff can correct a mis-scan from the same screen. The row
			// lock keeps two concurrent scans from collapsing into one flip.
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("code = ?", params.Code).
					First(&attendee).
					Error; err != nil {
					return err
				}
				attendee.CheckedIn = !attendee.CheckedIn
				return tx.
					Model(&attendee).
					Update("checked_in", attendee.CheckedIn).
					Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, http.StatusNotFound, types.ErrCodeNotFound, "unknown ticket code")
					return
				}
				log.Printf("Error toggling check-in for code [%s]: %s\n", params.Code, err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not update check-in")
				return
			}
			log.Printf("[CheckIn] code=%s checked_in=%v\n", attendee.Code, attendee.CheckedIn)
			ctx.JSON(http.StatusOK, gin.H{"data": attendee})
		})
	return g
}
