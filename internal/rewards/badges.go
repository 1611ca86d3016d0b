package rewards

import (
	"context"
	"fmt"
	"time"

	"github.com/bni-7/medireturn/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BadgeEvaluator awards badges once a user's cumulative collected weight
// crosses a threshold. Evaluation is idempotent: already-held badges are
// skipped by name, and the user_badges unique index backs that check at the
// database level.
type BadgeEvaluator struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewBadgeEvaluator constructs a BadgeEvaluator over the given connection.
func NewBadgeEvaluator(db *gorm.DB) *BadgeEvaluator {
	return &BadgeEvaluator{db: db, ledger: NewLedger(db)}
}

// WithTx returns a BadgeEvaluator bound to an open transaction.
func (e *BadgeEvaluator) WithTx(tx *gorm.DB) *BadgeEvaluator {
	return &BadgeEvaluator{db: tx, ledger: NewLedger(tx)}
}

// Evaluate compares totalCollected against every badge threshold and persists
// any unearned-but-now-qualifying badges. It returns the newly earned badge
// names in threshold order. Each new badge is also recorded in the ledger as
// a zero-delta badge_earned entry.
func (e *BadgeEvaluator) Evaluate(ctx context.Context, userID uint64, totalCollected float64) ([]string, error) {
	var held []models.UserBadge
	if errFind := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&held).Error; errFind != nil {
		return nil, errFind
	}
	heldNames := make(map[string]struct{}, len(held))
	for _, b := range held {
		heldNames[b.Name] = struct{}{}
	}

	now := time.Now().UTC()
	var earned []string
	for _, level := range BadgeLevels {
		if totalCollected < level.MinKg {
			continue
		}
		if _, ok := heldNames[level.Name]; ok {
			continue
		}
		badge := models.UserBadge{
			UserID:   userID,
			Name:     level.Name,
			EarnedAt: now,
		}
		if errCreate := e.db.WithContext(ctx).Create(&badge).Error; errCreate != nil {
			return nil, errCreate
		}
		if _, errAward := e.ledger.Award(ctx, userID, 0, models.TxBadgeEarned,
			fmt.Sprintf("Earned the %s badge", level.Name), nil, ""); errAward != nil {
			return nil, errAward
		}
		earned = append(earned, level.Name)
	}

	if len(earned) > 0 {
		log.Infof("user %d earned badges %v at %.2fkg collected", userID, earned, totalCollected)
	}
	return earned, nil
}
