package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bni-7/medireturn/internal/cache"
	"github.com/bni-7/medireturn/internal/models"
)

func TestUpdateProfileChangesAddressOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	user := seedUser(t, conn, "Asha", "asha@example.com", models.RoleCitizen)
	h := NewUserHandler(conn, cache.NewMemoryCache())

	body := `{"name":"Asha P","phone":"9000000000","address":{"street":"7 Lake View","city":"Mumbai","pincode":"400001"}}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("userID", user.ID)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/users/profile", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.UpdateProfile(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var updated models.User
	if errFind := conn.First(&updated, user.ID).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	if updated.Name != "Asha P" || updated.AddressCity != "Mumbai" {
		t.Errorf("profile not updated: %+v", updated)
	}
	if updated.Email != user.Email || updated.ReferralCode != user.ReferralCode {
		t.Errorf("immutable fields changed: %+v", updated)
	}
}

func TestDashboardReportsRankAndCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	user := seedUser(t, conn, "Asha", "asha@example.com", models.RoleCitizen)
	leader := seedUser(t, conn, "Leader", "leader@example.com", models.RoleCitizen)
	if errUpdate := conn.Model(&models.User{}).Where("id = ?", leader.ID).UpdateColumn("points", 500).Error; errUpdate != nil {
		t.Fatalf("set leader points: %v", errUpdate)
	}
	h := NewUserHandler(conn, cache.NewMemoryCache())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("userID", user.ID)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/users/dashboard", nil)
	h.Dashboard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		CityRank     int64            `json:"cityRank"`
		PickupCounts map[string]int64 `json:"pickupCounts"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.CityRank != 2 {
		t.Errorf("cityRank = %d, want 2 (one citizen ahead)", resp.CityRank)
	}
	if resp.PickupCounts["pending"] != 0 {
		t.Errorf("pending count = %d, want 0", resp.PickupCounts["pending"])
	}
}

func TestLeaderboardOrdersAndCaches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	first := seedUser(t, conn, "First", "first@example.com", models.RoleCitizen)
	second := seedUser(t, conn, "Second", "second@example.com", models.RoleCitizen)
	if errUpdate := conn.Model(&models.User{}).Where("id = ?", first.ID).UpdateColumn("points", 300).Error; errUpdate != nil {
		t.Fatalf("set points: %v", errUpdate)
	}
	if errUpdate := conn.Model(&models.User{}).Where("id = ?", second.ID).UpdateColumn("points", 100).Error; errUpdate != nil {
		t.Fatalf("set points: %v", errUpdate)
	}
	h := NewUserHandler(conn, cache.NewMemoryCache())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/users/leaderboard?city=Pune", nil)
	h.Leaderboard(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Cached      bool `json:"cached"`
		Leaderboard []struct {
			Rank   int    `json:"rank"`
			Name   string `json:"name"`
			Points int64  `json:"points"`
		} `json:"leaderboard"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Cached {
		t.Error("first request should not be served from cache")
	}
	if len(resp.Leaderboard) != 2 || resp.Leaderboard[0].Name != "First" || resp.Leaderboard[0].Rank != 1 {
		t.Fatalf("leaderboard = %+v, want First ranked 1", resp.Leaderboard)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/users/leaderboard?city=Pune", nil)
	h.Leaderboard(c)
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode cached response: %v", errDecode)
	}
	if !resp.Cached {
		t.Error("second request should be served from cache")
	}
}

func TestTransactionsPaginate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupHandlerDB(t)
	user := seedUser(t, conn, "Asha", "asha@example.com", models.RoleCitizen)
	for i := 0; i < 3; i++ {
		tx := models.Transaction{UserID: user.ID, Type: models.TxCollection, Points: 10, Description: "Collected 1kg of medicines"}
		if errCreate := conn.Create(&tx).Error; errCreate != nil {
			t.Fatalf("create transaction: %v", errCreate)
		}
	}
	h := NewUserHandler(conn, cache.NewMemoryCache())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("userID", user.ID)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/users/transactions?page=1&limit=2", nil)
	h.Transactions(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Transactions []json.RawMessage `json:"transactions"`
		Total        int64             `json:"total"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Total != 3 || len(resp.Transactions) != 2 {
		t.Errorf("total = %d len = %d, want 3 and 2", resp.Total, len(resp.Transactions))
	}
}
