package main

import (
	"encoding/json"
	"etix/src/db"
	"etix/src/middlewares"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
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

func (s *TestSuite) SetupSuite() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("eventdate", eventDateValidatorFunc)
	}

	d, _ := NewMockDB()
	db.NewDB(d)
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestRequestIdHeader() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.NotEmpty(s.T(), w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), "req-abc", w.Header().Get("X-Request-Id"))
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestConfigRoute() {
	os.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_abc")
	defer os.Unsetenv("STRIPE_PUBLISHABLE_KEY")

	router := setupRouter()
	checkoutRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/config", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	body, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	sjson := string(body)
	assert.Equal(s.T(), "pk_test_abc", gjson.Get(sjson, "publishable_key").String())
	assert.NotEmpty(s.T(), gjson.Get(sjson, "currency").String())
}

func (s *TestSuite) TestCheckoutValidation() {
	router := setupRouter()
	checkoutRoutes(router)

	s.Run("Should reject a checkout with no body", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/checkout/session", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		body, _ := io.ReadAll(w.Body)
		assert.Equal(s.T(), "bad_request", gjson.Get(string(body), "error").String())
	})

	s.Run("Should reject a quantity above the per-order cap", func() {
		jbody := map[string]any{
			"event_id": 1,
			"name":     "Ada Lovelace",
			"email":    "ada@example.com",
			"quantity": 11,
		}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/checkout/session", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should require session_id on the success route", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/checkout/success", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestAuthRoutes() {
	router := setupRouter()
	guestAuthRoutes(router)

	s.Run("Should reject a login with no password", func() {
		jbody := map[string]any{"email": "admin@example.com"}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject registration without the setup secret", func() {
		os.Unsetenv("ADMIN_SETUP_SECRET")
		jbody := map[string]any{
			"email":    "admin@example.com",
			"password": "correct-horse-battery",
			"name":     "Admin",
		}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
		body, _ := io.ReadAll(w.Body)
		assert.Equal(s.T(), "unauthorized", gjson.Get(string(body), "error").String())
	})

	s.Run("Should require a token on the verify route", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/auth/password-reset/verify", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestEventValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	eventHandlers(apiv1)

	s.Run("Should reject an event dated in the past", func() {
		jbody := map[string]any{
			"name":       "Throwback Night",
			"location":   "Town Hall",
			"event_date": "2001-01-01",
			"event_time": "19:00",
			"price":      10,
			"capacity":   50,
		}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/events", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject an event without a capacity", func() {
		jbody := map[string]any{
			"name":       "No Room",
			"location":   "Town Hall",
			"event_date": "2999-01-01",
			"event_time": "19:00",
		}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/events", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestAuthMiddlewareRejectsAnonymous() {
	router := setupRouter()
	authorized := apiv1Group(router)
	authorized.Use(middlewares.AuthMiddleware)
	attendeeHandlers(authorized)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/attendees", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/attendees", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)

	// A bare scheme with no token must 401, not panic into a 500.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/attendees", nil)
	req.Header.Set("Authorization", "Bearer")
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
