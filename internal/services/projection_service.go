// internal/services/projection_service.go
package services

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/artcurio/curio-backend/internal/database"
	"github.com/artcurio/curio-backend/internal/models"
	"github.com/artcurio/curio-backend/internal/registry"
)

// ProjectionService consumes the registry's committed event feed. It
// journals every event to Postgres and maintains the listing read
// models, the same way any external indexer would: purely by replaying
// events. The registry stays authoritative; everything here can be
// dropped and rebuilt from the journal.
type ProjectionService struct {
	db     *gorm.DB
	events chan registry.Event
	done   chan struct{}
}

func NewProjectionService(db *gorm.DB) *ProjectionService {
	return &ProjectionService{
		db:     db,
		events: make(chan registry.Event, 1024),
		done:   make(chan struct{}),
	}
}

// HandleEvent is the registry sink. It only enqueues: the registry calls
// it inside the committing operation, so the database work happens on
// the projection's own goroutine.
//
// When the queue is full the send blocks, backpressuring every registry
// write until the database drains. That is deliberate: the journal is
// what Replay rebuilds from at boot, so dropping events here would lose
// committed state across a restart. The remaining durability window is
// the queue itself; events sitting in it are lost if the process dies
// before the worker journals them.
func (s *ProjectionService) HandleEvent(ev registry.Event) {
	select {
	case s.events <- ev:
		return
	default:
	}

	logrus.WithField("seq", ev.Seq).Warn("Projection queue saturated; registry writes are waiting on the journal")
	s.events <- ev
}

func (s *ProjectionService) Start() {
	go func() {
		defer close(s.done)
		for ev := range s.events {
			if err := s.apply(ev); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"seq":  ev.Seq,
					"type": ev.Type,
				}).Error("Failed to project event")
			}
		}
	}()
}

// Stop drains the queue and waits for the worker to finish.
func (s *ProjectionService) Stop() {
	close(s.events)
	<-s.done
}

// LoadEvents reads the full journal in sequence order, for rebuilding
// the registry at boot.
func (s *ProjectionService) LoadEvents() ([]registry.Event, error) {
	var records []models.EventRecord
	if err := s.db.Order("seq ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load event journal: %w", err)
	}

	events := make([]registry.Event, 0, len(records))
	for _, rec := range records {
		ev, err := decodeEvent(rec)
		if err != nil {
			return nil, fmt.Errorf("corrupt journal entry %d: %w", rec.Seq, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// RebuildReadModels drops the listing views and reconstructs them by
// replaying the journal from the beginning.
func (s *ProjectionService) RebuildReadModels() error {
	events, err := s.LoadEvents()
	if err != nil {
		return err
	}

	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.AssetView{}).Error; err != nil {
			return fmt.Errorf("failed to clear asset views: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.GalleryView{}).Error; err != nil {
			return fmt.Errorf("failed to clear gallery views: %w", err)
		}
		for _, ev := range events {
			if err := s.applyToViews(tx, ev); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ProjectionService) apply(ev registry.Event) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		payload, err := encodeEvent(ev)
		if err != nil {
			return err
		}

		record := &models.EventRecord{
			Seq:       ev.Seq,
			EventType: string(ev.Type),
			Payload:   payload,
			EmittedAt: ev.Time,
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to journal event: %w", err)
		}

		return s.applyToViews(tx, ev)
	})
}

func (s *ProjectionService) applyToViews(tx *gorm.DB, ev registry.Event) error {
	switch ev.Type {
	case registry.EventGalleryCreated:
		view := &models.GalleryView{
			Key:         ev.GalleryKey,
			Name:        ev.Name,
			Description: ev.Description,
			Curator:     string(ev.Curator),
			Active:      true,
			CreatedAt:   ev.Time,
		}
		return tx.Create(view).Error

	case registry.EventAssetCreated:
		view := &models.AssetView{
			ID:         ev.AssetID,
			Title:      ev.Title,
			Creator:    string(ev.Creator),
			Owner:      string(ev.Creator),
			Price:      uint64(ev.Price),
			ForSale:    true,
			ContentRef: ev.ContentRef,
			GalleryKey: ev.GalleryKey,
			RoyaltyPct: ev.RoyaltyPct,
			ListedAt:   ev.Time,
		}
		if err := tx.Create(view).Error; err != nil {
			return err
		}
		return tx.Model(&models.GalleryView{}).
			Where("key = ?", ev.GalleryKey).
			UpdateColumn("artwork_ids", gorm.Expr("array_append(artwork_ids, ?)", int64(ev.AssetID))).Error

	case registry.EventAssetSold:
		return tx.Model(&models.AssetView{}).
			Where("id = ?", ev.AssetID).
			Updates(map[string]interface{}{
				"owner":    string(ev.Buyer),
				"for_sale": false,
			}).Error

	case registry.EventRoyaltyPaid:
		// Ledger detail only; no read model changes.
		return nil

	case registry.EventPriceUpdated:
		return tx.Model(&models.AssetView{}).
			Where("id = ?", ev.AssetID).
			Updates(map[string]interface{}{
				"price":    uint64(ev.Price),
				"for_sale": true,
			}).Error

	case registry.EventReviewAdded:
		return tx.Model(&models.AssetView{}).
			Where("id = ?", ev.AssetID).
			Updates(map[string]interface{}{
				"rating_count":   gorm.Expr("rating_count + 1"),
				"rating_sum":     gorm.Expr("rating_sum + ?", ev.Rating),
				"average_rating": gorm.Expr("(rating_sum + ?) / (rating_count + 1)", ev.Rating),
			}).Error

	case registry.EventFeeUpdated:
		// Fee rate lives in the registry; nothing to project.
		return nil
	}

	return nil
}

func encodeEvent(ev registry.Event) (models.JSONB, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	var payload models.JSONB
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}
	return payload, nil
}

func decodeEvent(rec models.EventRecord) (registry.Event, error) {
	raw, err := json.Marshal(rec.Payload)
	if err != nil {
		return registry.Event{}, err
	}
	var ev registry.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return registry.Event{}, err
	}
	return ev, nil
}
