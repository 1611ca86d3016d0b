package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bni-7/medireturn/internal/models"
)

func TestAnalyticsOverviewAggregates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	citizen := seedAccount(t, conn, "Asha", "asha@example.com", models.RoleCitizen, "Pune")
	op := seedAccount(t, conn, "Op", "op@example.com", models.RoleCollectionPoint, "Pune")
	point := seedAdminPoint(t, conn, op, "City Care Pharmacy", true)

	completedAt := time.Now().UTC()
	completed := models.Pickup{
		UserID:            citizen.ID,
		CollectionPointID: point.ID,
		AddressStreet:     "12 Relief Road",
		AddressCity:       "Pune",
		AddressPincode:    "411001",
		PreferredDate:     completedAt,
		TimeSlot:          models.TimeSlots[0],
		MedicineDetails:   "Old tablets",
		EstimatedQuantity: 2,
		ContactPhone:      "9876543210",
		Status:            models.StatusCompleted,
		QuantityCollected: 2.5,
		CompletedAt:       &completedAt,
	}
	if errCreate := conn.Create(&completed).Error; errCreate != nil {
		t.Fatalf("create pickup: %v", errCreate)
	}
	tx := models.Transaction{UserID: citizen.ID, Type: models.TxCollection, Points: 25, Description: "Collected 2.5kg of medicines"}
	if errCreate := conn.Create(&tx).Error; errCreate != nil {
		t.Fatalf("create transaction: %v", errCreate)
	}

	h := NewAnalyticsHandler(conn)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/admin/analytics", nil)
	h.Overview(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		UsersByRole     map[string]int64 `json:"usersByRole"`
		PickupsByStatus map[string]int64 `json:"pickupsByStatus"`
		TotalCollected  float64          `json:"totalCollected"`
		PointsIssued    int64            `json:"pointsIssued"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.UsersByRole["citizen"] != 1 || resp.UsersByRole["collection_point"] != 1 {
		t.Errorf("usersByRole = %+v", resp.UsersByRole)
	}
	if resp.PickupsByStatus["completed"] != 1 {
		t.Errorf("pickupsByStatus = %+v", resp.PickupsByStatus)
	}
	if resp.TotalCollected != 2.5 {
		t.Errorf("totalCollected = %g, want 2.5", resp.TotalCollected)
	}
	if resp.PointsIssued != 25 {
		t.Errorf("pointsIssued = %d, want 25", resp.PointsIssued)
	}
}

func TestAnalyticsMonthlyBucketsCompleted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	citizen := seedAccount(t, conn, "Asha", "asha@example.com", models.RoleCitizen, "Pune")
	op := seedAccount(t, conn, "Op", "op@example.com", models.RoleCollectionPoint, "Pune")
	point := seedAdminPoint(t, conn, op, "City Care Pharmacy", true)

	completedAt := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		p := models.Pickup{
			UserID:            citizen.ID,
			CollectionPointID: point.ID,
			AddressStreet:     "12 Relief Road",
			AddressCity:       "Pune",
			AddressPincode:    "411001",
			PreferredDate:     completedAt,
			TimeSlot:          models.TimeSlots[0],
			MedicineDetails:   "Old tablets",
			EstimatedQuantity: 1,
			ContactPhone:      "9876543210",
			Status:            models.StatusCompleted,
			QuantityCollected: 1.5,
			CompletedAt:       &completedAt,
		}
		if errCreate := conn.Create(&p).Error; errCreate != nil {
			t.Fatalf("create pickup: %v", errCreate)
		}
	}

	h := NewAnalyticsHandler(conn)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/admin/analytics/monthly", nil)
	h.Monthly(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Monthly []struct {
			Month          string  `json:"month"`
			Completed      int64   `json:"completed"`
			TotalCollected float64 `json:"totalCollected"`
		} `json:"monthly"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if len(resp.Monthly) != 1 {
		t.Fatalf("expected one month bucket, got %+v", resp.Monthly)
	}
	if resp.Monthly[0].Month != "2026-07" || resp.Monthly[0].Completed != 2 || resp.Monthly[0].TotalCollected != 3 {
		t.Errorf("bucket = %+v, want 2026-07 with 2 pickups and 3kg", resp.Monthly[0])
	}
}

func TestAnalyticsCityStatsGroupsCitizens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	a := seedAccount(t, conn, "Asha", "asha@example.com", models.RoleCitizen, "Pune")
	seedAccount(t, conn, "Ravi", "ravi@example.com", models.RoleCitizen, "Pune")
	seedAccount(t, conn, "Meera", "meera@example.com", models.RoleCitizen, "Mumbai")
	if errUpdate := conn.Model(&models.User{}).Where("id = ?", a.ID).UpdateColumn("points", 40).Error; errUpdate != nil {
		t.Fatalf("set points: %v", errUpdate)
	}

	h := NewAnalyticsHandler(conn)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/admin/analytics/cities", nil)
	h.CityStats(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Cities []struct {
			City     string `json:"city"`
			Citizens int64  `json:"citizens"`
			Points   int64  `json:"points"`
		} `json:"cities"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if len(resp.Cities) != 2 {
		t.Fatalf("expected 2 cities, got %+v", resp.Cities)
	}
	for _, city := range resp.Cities {
		if city.City == "Pune" && (city.Citizens != 2 || city.Points != 40) {
			t.Errorf("Pune stats = %+v", city)
		}
	}
}
