package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"etix/src/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	mockdb, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockdb}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func jsonContext(method, target string, body map[string]any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	sbody, _ := json.Marshal(&body)
	req := httptest.NewRequest(method, target, strings.NewReader(string(sbody)))
	req.Header.Set("Content-Type", "application/json")
	ctx.Request = req
	return ctx, w
}

func adminRow(email, password string) *sqlmock.Rows {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return sqlmock.
		NewRows([]string{"id", "email", "password", "name"}).
		AddRow(1, email, string(hashed), "Admin")
}

func TestAuthLogin(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	t.Run("returns a token for valid credentials", func(t *testing.T) {
		d, mock := newMockDB()
		db.NewDB(d)

		mock.ExpectQuery(`SELECT (.+) FROM "admins"`).
			WillReturnRows(adminRow("admin@example.com", "password123"))

		ctx, _ := jsonContext("POST", "/api/v1/auth/login", map[string]any{
			"email":    "admin@example.com",
			"password": "password123",
		})
		token, status, err := AuthLogin(ctx)
		assert.Nil(t, err)
		assert.Equal(t, http.StatusOK, status)
		assert.NotNil(t, token)
		assert.NotEmpty(t, *token)
		assert.Nil(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		d, mock := newMockDB()
		db.NewDB(d)

		mock.ExpectQuery(`SELECT (.+) FROM "admins"`).
			WillReturnRows(adminRow("admin@example.com", "password123"))

		ctx, _ := jsonContext("POST", "/api/v1/auth/login", map[string]any{
			"email":    "admin@example.com",
			"password": "wrong-password",
		})
		_, status, err := AuthLogin(ctx)
		assert.NotNil(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("rejects an unknown email without leaking why", func(t *testing.T) {
		d, mock := newMockDB()
		db.NewDB(d)

		mock.ExpectQuery(`SELECT (.+) FROM "admins"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		ctx, _ := jsonContext("POST", "/api/v1/auth/login", map[string]any{
			"email":    "nobody@example.com",
			"password": "password123",
		})
		_, status, err := AuthLogin(ctx)
		assert.NotNil(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid credentials", err.Error())
	})
}

func TestAuthRegister(t *testing.T) {
	t.Run("rejects a missing setup secret", func(t *testing.T) {
		os.Unsetenv("ADMIN_SETUP_SECRET")
		ctx, _ := jsonContext("POST", "/api/v1/auth/register", map[string]any{
			"email":    "admin@example.com",
			"password": "password123",
			"name":     "Admin",
		})
		_, status, err := AuthRegister(ctx)
		assert.NotNil(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("rejects a wrong setup secret", func(t *testing.T) {
		os.Setenv("ADMIN_SETUP_SECRET", "right-secret")
		defer os.Unsetenv("ADMIN_SETUP_SECRET")

		ctx, _ := jsonContext("POST", "/api/v1/auth/register", map[string]any{
			"email":    "admin@example.com",
			"password": "password123",
			"name":     "Admin",
		})
		ctx.Request.Header.Set("x-setup-secret", "wrong-secret")
		_, status, err := AuthRegister(ctx)
		assert.NotNil(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("creates an admin with a hashed password", func(t *testing.T) {
		os.Setenv("ADMIN_SETUP_SECRET", "right-secret")
		defer os.Unsetenv("ADMIN_SETUP_SECRET")

		d, mock := newMockDB()
		db.NewDB(d)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "admins"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "admins"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		ctx, _ := jsonContext("POST", "/api/v1/auth/register", map[string]any{
			"email":    "admin@example.com",
			"password": "password123",
			"name":     "Admin",
		})
		ctx.Request.Header.Set("x-setup-secret", "right-secret")
		admin, status, err := AuthRegister(ctx)
		assert.Nil(t, err)
		assert.Equal(t, http.StatusCreated, status)
		assert.NotNil(t, admin)
		assert.NotEqual(t, "password123", admin.Password)
		assert.Nil(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("password123")))
		assert.Nil(t, mock.ExpectationsWereMet())
	})
}
