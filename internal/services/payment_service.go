// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/transfer"
	"gorm.io/gorm"

	"github.com/artcurio/curio-backend/internal/config"
	"github.com/artcurio/curio-backend/internal/models"
	"github.com/artcurio/curio-backend/internal/registry"
)

// PaymentService is the outward payment substrate behind purchases. It
// satisfies registry.Transferer: the registry calls Transfer
// synchronously inside its serialized purchase section, so Transfer
// never calls back into the registry.
type PaymentService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewPaymentService(db *gorm.DB, cfg *config.Config) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:  db,
		cfg: cfg,
	}
}

// Transfer moves amount (in the smallest currency unit) to the identity's
// connected account and appends a ledger row. A zero amount records
// nothing and succeeds, matching splits whose fee or royalty floors to
// zero.
func (s *PaymentService) Transfer(to registry.Identity, amount registry.Amount) error {
	if amount == 0 {
		return nil
	}

	record := &models.TransferRecord{
		Recipient: string(to),
		Amount:    uint64(amount),
		Status:    models.TransferStatusCompleted,
	}

	destination, userID, err := s.resolveDestination(to)
	if err != nil {
		record.Status = models.TransferStatusFailed
		record.FailureReason = err.Error()
		s.saveRecord(record)
		return err
	}
	record.RecipientUserID = userID

	// The platform's own account holds the funds already; fees need no
	// outward transfer.
	if destination == "" {
		s.saveRecord(record)
		return nil
	}

	if s.cfg.Payment.StripeSecretKey == "" {
		// Local development: no payment backend configured, ledger only.
		logrus.WithFields(logrus.Fields{
			"recipient": to,
			"amount":    amount,
		}).Info("Stripe not configured; recording transfer without payout")
		s.saveRecord(record)
		return nil
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(amount)),
		Currency:    stripe.String(s.cfg.Payment.Currency),
		Destination: stripe.String(destination),
	}

	tr, err := transfer.New(params)
	if err != nil {
		record.Status = models.TransferStatusFailed
		record.FailureReason = err.Error()
		s.saveRecord(record)
		return fmt.Errorf("stripe transfer failed: %w", err)
	}

	record.StripeRef = tr.ID
	s.saveRecord(record)
	return nil
}

// GetTransferHistory returns the ledger rows involving an identity.
func (s *PaymentService) GetTransferHistory(identity string, limit int) ([]models.TransferRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var records []models.TransferRecord
	if err := s.db.Where("recipient = ?", identity).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch transfers: %w", err)
	}

	return records, nil
}

func (s *PaymentService) resolveDestination(to registry.Identity) (string, *uuid.UUID, error) {
	if string(to) == s.cfg.Registry.AdminAccountID {
		return "", nil, nil
	}

	userID, err := uuid.Parse(string(to))
	if err != nil {
		return "", nil, fmt.Errorf("unknown payment recipient %q", to)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return "", nil, fmt.Errorf("payment recipient not found: %w", err)
	}

	if s.cfg.Payment.StripeSecretKey != "" && user.StripeAccountID == "" {
		return "", nil, errors.New("recipient has no connected payout account")
	}

	return user.StripeAccountID, &user.ID, nil
}

func (s *PaymentService) saveRecord(record *models.TransferRecord) {
	if err := s.db.Create(record).Error; err != nil {
		logrus.WithError(err).Error("Failed to record transfer")
	}
}
