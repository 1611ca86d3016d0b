package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bni-7/medireturn/internal/config"
	"github.com/bni-7/medireturn/internal/models"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", TokenExpiry: time.Hour}
}

func TestRegisterCitizenIssuesReferralCodeAndToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	h := NewAuthHandler(conn, testJWTConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"name":"Asha","email":"Asha@Example.com","password":"secret123","phone":"9876543210"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			Email        string `json:"email"`
			Role         string `json:"role"`
			ReferralCode string `json:"referralCode"`
		} `json:"user"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if !resp.Success || resp.Token == "" {
		t.Fatalf("expected success with token, got %+v", resp)
	}
	if resp.User.Email != "asha@example.com" {
		t.Errorf("email should be lowercased, got %q", resp.User.Email)
	}
	if resp.User.Role != models.RoleCitizen {
		t.Errorf("default role = %q, want citizen", resp.User.Role)
	}
	if len(resp.User.ReferralCode) != 8 {
		t.Errorf("referral code = %q, want 8 characters", resp.User.ReferralCode)
	}
}

func TestRegisterCapturesReferringCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	referrer := seedUser(t, conn, "Referrer", "ref@example.com", models.RoleCitizen)
	h := NewAuthHandler(conn, testJWTConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"name":"Friend","email":"friend@example.com","password":"secret123","referralCode":"` + strings.ToLower(referrer.ReferralCode) + `"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", w.Code, w.Body.String())
	}
	var created models.User
	if errFind := conn.Where("email = ?", "friend@example.com").First(&created).Error; errFind != nil {
		t.Fatalf("load created user: %v", errFind)
	}
	if created.ReferredBy != referrer.ReferralCode {
		t.Errorf("referredBy = %q, want %q", created.ReferredBy, referrer.ReferralCode)
	}
}

func TestRegisterRejectsUnknownReferralCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	h := NewAuthHandler(conn, testJWTConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"name":"Friend","email":"friend@example.com","password":"secret123","referralCode":"NOSUCHCD"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Field   string `json:"field"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Success || resp.Field != "referralCode" {
		t.Errorf("expected failure on referralCode field, got %+v", resp)
	}
	var count int64
	if errCount := conn.Model(&models.User{}).Where("email = ?", "friend@example.com").Count(&count).Error; errCount != nil {
		t.Fatalf("count users: %v", errCount)
	}
	if count != 0 {
		t.Errorf("no user should be persisted, found %d", count)
	}
}

func TestRegisterStoresOptionalAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	h := NewAuthHandler(conn, testJWTConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{
		"name": "Asha",
		"email": "asha@example.com",
		"password": "secret123",
		"address": {"street": "12 MG Road", "city": "Pune", "state": "MH", "pincode": "411001", "lat": 18.52, "lng": 73.85}
	}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", w.Code, w.Body.String())
	}
	var created models.User
	if errFind := conn.Where("email = ?", "asha@example.com").First(&created).Error; errFind != nil {
		t.Fatalf("load created user: %v", errFind)
	}
	if created.AddressStreet != "12 MG Road" || created.AddressCity != "Pune" || created.AddressPincode != "411001" {
		t.Errorf("stored address = %q/%q/%q", created.AddressStreet, created.AddressCity, created.AddressPincode)
	}
	if !created.HasCompleteAddress() {
		t.Error("address supplied at signup should be complete")
	}
	if created.AddressLat == nil || *created.AddressLat != 18.52 {
		t.Errorf("latitude not stored, got %v", created.AddressLat)
	}
}

func TestRegisterRetriesReferralCodeCollision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	existing := seedUser(t, conn, "Holder", "holder@example.com", models.RoleCitizen)
	h := NewAuthHandler(conn, testJWTConfig())

	original := newReferralCode
	defer func() { newReferralCode = original }()
	calls := 0
	newReferralCode = func(length int) (string, error) {
		calls++
		if calls == 1 {
			return existing.ReferralCode, nil
		}
		return original(length)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"name":"Asha","email":"asha@example.com","password":"secret123"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201 after retry, got %d body=%s", w.Code, w.Body.String())
	}
	if calls < 2 {
		t.Fatalf("expected a retry after the collision, got %d calls", calls)
	}
	var created models.User
	if errFind := conn.Where("email = ?", "asha@example.com").First(&created).Error; errFind != nil {
		t.Fatalf("load created user: %v", errFind)
	}
	if created.ReferralCode == existing.ReferralCode {
		t.Error("colliding code must not be reused")
	}
	if len(created.ReferralCode) != 8 {
		t.Errorf("referral code = %q, want 8 characters", created.ReferralCode)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	seedUser(t, conn, "Asha", "asha@example.com", models.RoleCitizen)
	h := NewAuthHandler(conn, testJWTConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"name":"Other","email":"asha@example.com","password":"secret123"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestLoginRejectsWrongPasswordAndInactive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	user := seedUser(t, conn, "Asha", "asha@example.com", models.RoleCitizen)
	h := NewAuthHandler(conn, testJWTConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"asha@example.com","password":"wrong"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Login(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}

	if errUpdate := conn.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("active", false).Error; errUpdate != nil {
		t.Fatalf("deactivate user: %v", errUpdate)
	}
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"asha@example.com","password":"secret123"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Login(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for inactive account, got %d", w.Code)
	}
}

func TestLoginSucceedsWithToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	seedUser(t, conn, "Asha", "asha@example.com", models.RoleCitizen)
	h := NewAuthHandler(conn, testJWTConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"asha@example.com","password":"secret123"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
}
