package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bni-7/medireturn/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReferralProgram credits a fixed bonus to the user whose referral code a new
// citizen signed up with, the first time that citizen completes a collection.
// The settled-at marker on the referred user makes the payout single-shot even
// if the completion flow is ever re-driven.
type ReferralProgram struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewReferralProgram constructs a ReferralProgram over the given connection.
func NewReferralProgram(db *gorm.DB) *ReferralProgram {
	return &ReferralProgram{db: db, ledger: NewLedger(db)}
}

// WithTx returns a ReferralProgram bound to an open transaction.
func (r *ReferralProgram) WithTx(tx *gorm.DB) *ReferralProgram {
	return &ReferralProgram{db: tx, ledger: NewLedger(tx)}
}

// PayoutFirstCollection credits the referrer of the given user. Missing
// referral linkage and unknown referrer codes are logged no-ops: rewarding the
// referrer must never fail the completion that triggered it.
func (r *ReferralProgram) PayoutFirstCollection(ctx context.Context, referredUserID uint64) error {
	var referred models.User
	if errFind := r.db.WithContext(ctx).First(&referred, referredUserID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			log.Warnf("referral payout skipped: user %d not found", referredUserID)
			return nil
		}
		return errFind
	}
	if referred.ReferredBy == "" {
		return nil
	}
	if referred.ReferralBonusSettledAt != nil {
		return nil
	}

	var referrer models.User
	if errFind := r.db.WithContext(ctx).
		Where("referral_code = ?", referred.ReferredBy).
		First(&referrer).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			log.Warnf("referral payout skipped: no user holds code %s (referred user %d)", referred.ReferredBy, referredUserID)
			return nil
		}
		return errFind
	}

	refID := referred.ID
	if _, errAward := r.ledger.Award(ctx, referrer.ID, ReferralBonus, models.TxReferralBonus,
		fmt.Sprintf("Referral bonus for %s", referred.Name), &refID, models.RefUser); errAward != nil {
		return errAward
	}

	now := time.Now().UTC()
	if errMark := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND referral_bonus_settled_at IS NULL", referred.ID).
		UpdateColumn("referral_bonus_settled_at", now).Error; errMark != nil {
		return errMark
	}

	log.Infof("referral bonus of %d points credited to user %d for user %d", ReferralBonus, referrer.ID, referred.ID)
	return nil
}
