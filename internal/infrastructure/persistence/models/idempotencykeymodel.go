package models

import (
	"time"

	"github.com/leadsyncpro/billing/internal/shared/constants"
)

// IdempotencyKeyModel records a client request key and, once the request
// finished, the response to replay.
type IdempotencyKeyModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Key            string `gorm:"column:idempotency_key;uniqueIndex;not null;size:255"`
	RequestHash    string `gorm:"not null;size:64"`
	ResponseBody   []byte
	ResponseStatus *int
	ExpiresAt      *time.Time `gorm:"index:idx_expires"`
	CreatedAt      time.Time
}

// TableName specifies the table name for GORM
func (IdempotencyKeyModel) TableName() string {
	return constants.TableIdempotencyKeys
}
