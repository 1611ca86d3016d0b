package rewards

import (
	"context"
	"errors"
	"time"

	"github.com/bni-7/medireturn/internal/models"
	"gorm.io/gorm"
)

// Ledger errors.
var (
	// ErrUserNotFound indicates the beneficiary does not exist.
	ErrUserNotFound = errors.New("rewards: user not found")
	// ErrInsufficientPoints indicates a debit would take the balance negative.
	ErrInsufficientPoints = errors.New("rewards: insufficient points")
)

// Ledger applies point deltas to user balances and appends immutable
// transaction records. Balance updates are single atomic column expressions,
// so concurrent awards for the same user never lose an increment.
type Ledger struct {
	db *gorm.DB
}

// NewLedger constructs a Ledger over the given connection.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a Ledger bound to an open transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Award increments the user's point balance by delta and appends a matching
// transaction. Negative deltas are permitted but may not take the balance
// below zero. The returned transaction is the created ledger row.
func (l *Ledger) Award(ctx context.Context, userID uint64, delta int64, txType, description string, refID *uint64, refKind string) (*models.Transaction, error) {
	q := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID)
	if delta < 0 {
		q = q.Where("points + ? >= 0", delta)
	}
	res := q.UpdateColumn("points", gorm.Expr("points + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if errCount := l.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", userID).
			Count(&count).Error; errCount != nil {
			return nil, errCount
		}
		if count == 0 {
			return nil, ErrUserNotFound
		}
		return nil, ErrInsufficientPoints
	}

	entry := models.Transaction{
		UserID:        userID,
		Type:          txType,
		Points:        delta,
		Description:   description,
		ReferenceID:   refID,
		ReferenceKind: refKind,
		CreatedAt:     time.Now().UTC(),
	}
	if errCreate := l.db.WithContext(ctx).Create(&entry).Error; errCreate != nil {
		return nil, errCreate
	}
	return &entry, nil
}

// Balance returns the user's current point balance.
func (l *Ledger) Balance(ctx context.Context, userID uint64) (int64, error) {
	var user models.User
	if errFind := l.db.WithContext(ctx).Select("points").First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, errFind
	}
	return user.Points, nil
}
