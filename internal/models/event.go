// internal/models/event.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// EventRecord is one journaled registry event. Seq mirrors the
// registry's own sequence numbers, so the journal is a faithful copy of
// the in-process log and can be replayed to rebuild it.
type EventRecord struct {
	Seq       uint64    `json:"seq" gorm:"primaryKey;autoIncrement:false"`
	EventType string    `json:"event_type" gorm:"size:50;not null;index"`
	Payload   JSONB     `json:"payload" gorm:"type:jsonb;not null"`
	EmittedAt time.Time `json:"emitted_at" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// TransferRecord is the payout ledger: one row per outward payment sent
// through the payment substrate. The substrate only sees recipient and
// amount; per-sale context lives in the event journal.
type TransferRecord struct {
	BaseModel
	Recipient       string         `json:"recipient" gorm:"size:255;not null;index"`
	Amount          uint64         `json:"amount" gorm:"not null"`
	StripeRef       string         `json:"stripe_ref,omitempty" gorm:"size:255"`
	Status          TransferStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	FailureReason   string         `json:"failure_reason,omitempty" gorm:"type:text"`
	RecipientUserID *uuid.UUID     `json:"recipient_user_id,omitempty" gorm:"type:uuid;index"`
}
