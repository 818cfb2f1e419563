package controllers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"etix/src/config"
	"etix/src/db"
	"etix/src/lib/mailer"
	"etix/src/models"
	"etix/src/types"
	"etix/src/utils"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthRegister creates an admin account. The route is gated by a shared
// setup secret so the endpoint can stay mounted without being open.
func AuthRegister(ctx *gin.Context) (admin *models.Admin, status int, err error) {
	setupSecret := os.Getenv("ADMIN_SETUP_SECRET")
	provided := ctx.GetHeader("x-setup-secret")
	if setupSecret == "" || subtle.ConstantTimeCompare([]byte(setupSecret), []byte(provided)) != 1 {
		return nil, http.StatusUnauthorized, errors.New("invalid setup secret")
	}

	var body types.RegisterAdminRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	var count int64
	if err := db.
		Model(&models.Admin{}).
		Where("email = ?", body.Email).
		Count(&count).
		Error; err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if count > 0 {
		return nil, http.StatusBadRequest, errors.New("admin with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	newAdmin := models.Admin{
		Email:    body.Email,
		Password: string(hashed),
		Name:     body.Name,
	}
	if err := db.Create(&newAdmin).Error; err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &newAdmin, http.StatusCreated, nil
}

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	var admin models.Admin
	if err := db.
		Where("email = ?", body.Email).
		First(&admin).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusUnauthorized, errors.New("invalid credentials")
		}
		return nil, http.StatusInternalServerError, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(body.Password)); err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}

	jwt, err := utils.GenerateJWT(admin.Email, admin.ID, admin.Name)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}

// RequestPasswordReset always reports success so the endpoint cannot be used
// to enumerate admin emails.
func RequestPasswordReset(ctx *gin.Context) (status int, err error) {
	var body types.PasswordResetRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}

	db := db.GetDb()
	var admin models.Admin
	if err := db.
		Where("email = ?", body.Email).
		First(&admin).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Password reset requested for unknown email: %s\n", body.Email)
			return http.StatusOK, nil
		}
		return http.StatusInternalServerError, err
	}

	buf := make([]byte, 32)
	rand.Read(buf)
	token := hex.EncodeToString(buf)
	expiry := time.Now().Add(1 * time.Hour)
	if err := db.
		Model(&models.Admin{}).
		Where("id = ?", admin.ID).
		Updates(map[string]any{
			"reset_token":        token,
			"reset_token_expiry": expiry,
		}).
		Error; err != nil {
		return http.StatusInternalServerError, err
	}

	resetUrl := fmt.Sprintf("%s/reset-password?token=%s", config.AppURL(), token)
	go func() {
		if err := mailer.SendPasswordResetEmail(&admin, resetUrl); err != nil {
			log.Printf("Error sending password reset email to admin [%d]: %s\n", admin.ID, err.Error())
		}
	}()
	return http.StatusOK, nil
}

func VerifyResetToken(token string) (*models.Admin, error) {
	db := db.GetDb()
	var admin models.Admin
	err := db.
		Where("reset_token = ?", token).
		Where("reset_token_expiry > ?", time.Now()).
		First(&admin).
		Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func ResetPassword(ctx *gin.Context) (status int, err error) {
	var body types.PasswordResetConfirmBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}

	admin, err := VerifyResetToken(body.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return http.StatusBadRequest, errors.New("invalid or expired reset token")
		}
		return http.StatusInternalServerError, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	db := db.GetDb()
	if err := db.
		Model(&models.Admin{}).
		Where("id = ?", admin.ID).
		Updates(map[string]any{
			"password":           string(hashed),
			"reset_token":        nil,
			"reset_token_expiry": nil,
		}).
		Error; err != nil {
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}
