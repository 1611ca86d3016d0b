package pickup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/bni-7/medireturn/internal/models"
	"github.com/bni-7/medireturn/internal/rewards"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// phonePattern matches the 10-digit contact numbers the API accepts.
var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Service owns the pickup lifecycle: it validates transitions, enforces actor
// ownership, and drives the reward side effects on completion. Status writes
// are conditional updates keyed on the expected prior status, so two racing
// calls can never both take the same transition.
type Service struct {
	db        *gorm.DB
	ledger    *rewards.Ledger
	badges    *rewards.BadgeEvaluator
	referrals *rewards.ReferralProgram
}

// NewService constructs the pickup service and its reward collaborators.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:        db,
		ledger:    rewards.NewLedger(db),
		badges:    rewards.NewBadgeEvaluator(db),
		referrals: rewards.NewReferralProgram(db),
	}
}

// ScheduleInput carries a citizen's pickup request.
type ScheduleInput struct {
	CollectionPointID   uint64  // Target collection point.
	PickupDate          string  // Preferred date, "YYYY-MM-DD".
	TimeSlot            string  // One of the four fixed windows.
	MedicineDetails     string  // What is being returned.
	EstimatedQuantity   float64 // Estimated kilograms.
	ContactPhone        string  // Primary contact, 10 digits.
	AlternatePhone      string  // Optional secondary contact.
	SpecialInstructions string  // Optional handover instructions.
}

// CompletionResult is returned by Complete.
type CompletionResult struct {
	Pickup       *models.Pickup // The completed pickup.
	PointsEarned int64          // Points credited to the requester.
	NewBadges    []string       // Badge names earned by this completion.
}

// Schedule validates the request and creates a pending pickup. The pickup
// address is snapshotted from the citizen's stored profile, never from the
// request body.
func (s *Service) Schedule(ctx context.Context, citizenID uint64, in ScheduleInput) (*models.Pickup, error) {
	if strings.TrimSpace(in.MedicineDetails) == "" {
		return nil, validationErr("medicineDetails", "medicine details are required")
	}
	if in.EstimatedQuantity <= 0 {
		return nil, validationErr("estimatedQuantity", "estimated quantity must be greater than zero")
	}
	if !phonePattern.MatchString(strings.TrimSpace(in.ContactPhone)) {
		return nil, validationErr("contactPhone", "contact phone must be a 10-digit number")
	}
	if !models.ValidTimeSlot(in.TimeSlot) {
		return nil, validationErr("timeSlot", "invalid time slot selected")
	}

	preferredDate, errParse := time.ParseInLocation("2006-01-02", strings.TrimSpace(in.PickupDate), time.UTC)
	if errParse != nil {
		return nil, validationErr("pickupDate", "pickup date must be a valid YYYY-MM-DD date")
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if preferredDate.Before(today) {
		return nil, validationErr("pickupDate", "pickup date must be today or in the future")
	}

	var point models.CollectionPoint
	if errFind := s.db.WithContext(ctx).First(&point, in.CollectionPointID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("collection point not found")
		}
		return nil, dependencyErr(errFind)
	}
	if !point.IsVerified {
		return nil, invalidStateErr("collection point is not verified yet")
	}
	if !point.IsActive {
		return nil, invalidStateErr("collection point is not active")
	}

	var citizen models.User
	if errFind := s.db.WithContext(ctx).First(&citizen, citizenID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("user not found")
		}
		return nil, dependencyErr(errFind)
	}
	if !citizen.HasCompleteAddress() {
		return nil, validationErr("address", "complete your profile with a valid address (street, city, pincode) before scheduling a pickup")
	}

	p := models.Pickup{
		UserID:              citizen.ID,
		CollectionPointID:   point.ID,
		AddressStreet:       citizen.AddressStreet,
		AddressCity:         citizen.AddressCity,
		AddressState:        citizen.AddressState,
		AddressPincode:      citizen.AddressPincode,
		AddressLat:          citizen.AddressLat,
		AddressLng:          citizen.AddressLng,
		PreferredDate:       preferredDate,
		TimeSlot:            in.TimeSlot,
		MedicineDetails:     strings.TrimSpace(in.MedicineDetails),
		EstimatedQuantity:   in.EstimatedQuantity,
		ContactPhone:        strings.TrimSpace(in.ContactPhone),
		AlternatePhone:      strings.TrimSpace(in.AlternatePhone),
		SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		Status:              models.StatusPending,
	}
	if errCreate := s.db.WithContext(ctx).Create(&p).Error; errCreate != nil {
		return nil, dependencyErr(errCreate)
	}
	log.Infof("pickup %d scheduled by user %d at point %d for %s %s", p.ID, citizen.ID, point.ID, in.PickupDate, in.TimeSlot)
	return s.load(ctx, p.ID)
}

// Accept moves a pending pickup to accepted. Only the operator owning the
// targeted collection point may accept.
func (s *Service) Accept(ctx context.Context, operatorID, pickupID uint64) (*models.Pickup, error) {
	p, errAuth := s.authorizeOperator(ctx, operatorID, pickupID)
	if errAuth != nil {
		return nil, errAuth
	}
	if errTransition := s.transition(ctx, s.db, p.ID, models.StatusPending, map[string]any{
		"status": models.StatusAccepted,
	}); errTransition != nil {
		return nil, errTransition
	}
	return s.load(ctx, p.ID)
}

// Reject moves a pending pickup to rejected and stores the reason.
func (s *Service) Reject(ctx context.Context, operatorID, pickupID uint64, reason string) (*models.Pickup, error) {
	p, errAuth := s.authorizeOperator(ctx, operatorID, pickupID)
	if errAuth != nil {
		return nil, errAuth
	}
	if errTransition := s.transition(ctx, s.db, p.ID, models.StatusPending, map[string]any{
		"status":           models.StatusRejected,
		"rejection_reason": strings.TrimSpace(reason),
	}); errTransition != nil {
		return nil, errTransition
	}
	return s.load(ctx, p.ID)
}

// Complete finishes an accepted pickup and applies the full reward sequence —
// pickup terminal write, user and collection point totals, point award, badge
// evaluation and referral payout — inside one transaction, all or nothing.
func (s *Service) Complete(ctx context.Context, operatorID, pickupID uint64, quantityCollected float64) (*CompletionResult, error) {
	if quantityCollected <= 0 {
		return nil, validationErr("quantityCollected", "quantity collected must be greater than zero")
	}

	p, errAuth := s.authorizeOperator(ctx, operatorID, pickupID)
	if errAuth != nil {
		return nil, errAuth
	}

	pointsEarned := int64(math.Round(quantityCollected * rewards.PointsPerKg))
	var newBadges []string

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if errTransition := s.transition(ctx, tx, p.ID, models.StatusAccepted, map[string]any{
			"status":             models.StatusCompleted,
			"quantity_collected": quantityCollected,
			"completed_at":       now,
		}); errTransition != nil {
			return errTransition
		}

		var user models.User
		if errFind := tx.First(&user, p.UserID).Error; errFind != nil {
			return dependencyErr(errFind)
		}
		wasFirstCollection := user.TotalCollected == 0

		if errUser := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			UpdateColumn("total_collected", gorm.Expr("total_collected + ?", quantityCollected)).Error; errUser != nil {
			return dependencyErr(errUser)
		}
		if errPoint := tx.Model(&models.CollectionPoint{}).
			Where("id = ?", p.CollectionPointID).
			UpdateColumns(map[string]any{
				"total_collected":   gorm.Expr("total_collected + ?", quantityCollected),
				"completed_pickups": gorm.Expr("completed_pickups + 1"),
			}).Error; errPoint != nil {
			return dependencyErr(errPoint)
		}

		pickupRef := p.ID
		if _, errAward := s.ledger.WithTx(tx).Award(ctx, user.ID, pointsEarned, models.TxCollection,
			fmt.Sprintf("Collected %gkg of medicines", quantityCollected), &pickupRef, models.RefPickup); errAward != nil {
			return dependencyErr(errAward)
		}

		earned, errEval := s.badges.WithTx(tx).Evaluate(ctx, user.ID, user.TotalCollected+quantityCollected)
		if errEval != nil {
			return dependencyErr(errEval)
		}
		newBadges = earned

		if wasFirstCollection && user.ReferredBy != "" {
			if errPay := s.referrals.WithTx(tx).PayoutFirstCollection(ctx, user.ID); errPay != nil {
				return dependencyErr(errPay)
			}
		}
		return nil
	})
	if errTx != nil {
		var classified *Error
		if errors.As(errTx, &classified) {
			return nil, classified
		}
		return nil, dependencyErr(errTx)
	}

	completed, errLoad := s.load(ctx, p.ID)
	if errLoad != nil {
		return nil, errLoad
	}
	log.Infof("pickup %d completed: %.2fkg, %d points, badges %v", p.ID, quantityCollected, pointsEarned, newBadges)
	return &CompletionResult{Pickup: completed, PointsEarned: pointsEarned, NewBadges: newBadges}, nil
}

// Cancel lets the requesting citizen withdraw a pickup that has not been
// completed or already cancelled. Rejected pickups may still be cancelled,
// matching the one-directional transition rules.
func (s *Service) Cancel(ctx context.Context, citizenID, pickupID uint64) (*models.Pickup, error) {
	var p models.Pickup
	if errFind := s.db.WithContext(ctx).First(&p, pickupID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("pickup not found")
		}
		return nil, dependencyErr(errFind)
	}
	if p.UserID != citizenID {
		return nil, forbiddenErr("not authorized to cancel this pickup")
	}

	res := s.db.WithContext(ctx).
		Model(&models.Pickup{}).
		Where("id = ? AND status NOT IN ?", p.ID, []string{models.StatusCompleted, models.StatusCancelled}).
		Updates(map[string]any{"status": models.StatusCancelled})
	if res.Error != nil {
		return nil, dependencyErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, s.invalidStateFor(ctx, p.ID)
	}
	return s.load(ctx, p.ID)
}

// Get loads a pickup with its requester and collection point, enforcing that
// the caller is the requester, the owning operator, or an admin.
func (s *Service) Get(ctx context.Context, caller *models.User, pickupID uint64) (*models.Pickup, error) {
	p, errLoad := s.load(ctx, pickupID)
	if errLoad != nil {
		return nil, errLoad
	}
	if caller.Role == models.RoleAdmin || p.UserID == caller.ID {
		return p, nil
	}
	var owned int64
	if errCount := s.db.WithContext(ctx).
		Model(&models.CollectionPoint{}).
		Where("id = ? AND user_id = ?", p.CollectionPointID, caller.ID).
		Count(&owned).Error; errCount != nil {
		return nil, dependencyErr(errCount)
	}
	if owned == 0 {
		return nil, forbiddenErr("not authorized to view this pickup")
	}
	return p, nil
}

// authorizeOperator resolves the pickup and requires that the caller owns the
// collection point it targets. Ownership is resolved strictly through the
// pickup's own collection point id, never through any other point the caller
// might administer.
func (s *Service) authorizeOperator(ctx context.Context, operatorID, pickupID uint64) (*models.Pickup, error) {
	var p models.Pickup
	if errFind := s.db.WithContext(ctx).First(&p, pickupID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("pickup not found")
		}
		return nil, dependencyErr(errFind)
	}

	var point models.CollectionPoint
	if errFind := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", p.CollectionPointID, operatorID).
		First(&point).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, forbiddenErr("not authorized to manage this pickup")
		}
		return nil, dependencyErr(errFind)
	}
	return &p, nil
}

// transition performs a conditional status update keyed on the expected prior
// status. Zero rows affected means another caller got there first or the
// pickup was never in the expected state; the reported error names the status
// actually found.
func (s *Service) transition(ctx context.Context, tx *gorm.DB, pickupID uint64, fromStatus string, updates map[string]any) error {
	res := tx.WithContext(ctx).
		Model(&models.Pickup{}).
		Where("id = ? AND status = ?", pickupID, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return dependencyErr(res.Error)
	}
	if res.RowsAffected == 0 {
		if fromStatus == models.StatusAccepted {
			return invalidStateErr("pickup must be accepted before completion")
		}
		return s.invalidStateFor(ctx, pickupID)
	}
	return nil
}

// invalidStateFor reports an illegal transition naming the current status.
func (s *Service) invalidStateFor(ctx context.Context, pickupID uint64) error {
	var p models.Pickup
	if errFind := s.db.WithContext(ctx).Select("status").First(&p, pickupID).Error; errFind != nil {
		return dependencyErr(errFind)
	}
	return invalidStateErr("pickup is already %s", p.Status)
}

// load fetches a pickup with its requester and collection point preloaded.
func (s *Service) load(ctx context.Context, pickupID uint64) (*models.Pickup, error) {
	var p models.Pickup
	if errFind := s.db.WithContext(ctx).
		Preload("User").
		Preload("CollectionPoint").
		First(&p, pickupID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("pickup not found")
		}
		return nil, dependencyErr(errFind)
	}
	return &p, nil
}
