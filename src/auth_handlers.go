package main

import (
	"errors"
	"etix/src/controllers"
	"etix/src/types"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	guest := apiv1.Group("/auth")
	guest.
		POST("/login", func(ctx *gin.Context) {
			token, status, err := controllers.AuthLogin(ctx)
			if err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				code := types.ErrCodeUnauthorized
				if status == http.StatusBadRequest {
					code = types.ErrCodeBadRequest
				}
				respondError(ctx, status, code, err.Error())
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		}).
		POST("/register", func(ctx *gin.Context) {
			admin, status, err := controllers.AuthRegister(ctx)
			if err != nil {
				log.Printf("[AuthRegister] error: %s\n", err.Error())
				code := types.ErrCodeBadRequest
				if status == http.StatusUnauthorized {
					code = types.ErrCodeUnauthorized
				}
				respondError(ctx, status, code, err.Error())
				return
			}
			ctx.JSON(status, gin.H{"data": admin})
		}).
		POST("/password-reset/request", func(ctx *gin.Context) {
			status, err := controllers.RequestPasswordReset(ctx)
			if err != nil {
				log.Printf("[PasswordReset] error: %s\n", err.Error())
				respondError(ctx, status, types.ErrCodeBadRequest, err.Error())
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "If an account exists, a reset email will be sent"})
		}).
		GET("/password-reset/verify", func(ctx *gin.Context) {
			token := ctx.Query("token")
			if token == "" {
				respondError(ctx, http.StatusBadRequest, types.ErrCodeBadRequest, "token is required")
				return
			}
			admin, err := controllers.VerifyResetToken(token)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusOK, gin.H{"valid": false})
					return
				}
				log.Printf("[PasswordReset] verify error: %s\n", err.Error())
				respondError(ctx, http.StatusInternalServerError, types.ErrCodeServer, "could not verify token")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"valid": true,
				"admin": gin.H{"email": admin.Email, "name": admin.Name},
			})
		}).
		POST("/password-reset/reset", func(ctx *gin.Context) {
			status, err := controllers.ResetPassword(ctx)
			if err != nil {
				log.Printf("[PasswordReset] reset error: %s\n", err.Error())
				respondError(ctx, status, types.ErrCodeBadRequest, err.Error())
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
		})
	return apiv1
}
