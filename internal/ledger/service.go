package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
)

// EarningsSummary aggregates a driver's delivery earnings over a window.
type EarningsSummary struct {
	Window     enums.EarningsWindow `json:"window"`
	From       time.Time            `json:"from"`
	To         time.Time            `json:"to"`
	TotalMinor int64                `json:"total_minor"`
	Deliveries int                  `json:"deliveries"`
}

type deliveryMetadata struct {
	OrderID    uuid.UUID `json:"order_id"`
	DistanceKm float64   `json:"distance_km"`
	Priority   string    `json:"priority"`
}

// Service owns the driver earnings ledger.
type Service interface {
	RecordDelivery(ctx context.Context, tx *gorm.DB, assignment *models.DeliveryAssignment) error
	Earnings(ctx context.Context, driverID uuid.UUID, window enums.EarningsWindow) (*EarningsSummary, error)
}

type service struct {
	repo Repository
}

// NewService builds the ledger service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// RecordDelivery writes the earning for a delivered assignment. The unique
// index on assignment_id makes replays a no-op, so the delivered flow can
// call this from retries without double-paying.
func (s *service) RecordDelivery(ctx context.Context, tx *gorm.DB, assignment *models.DeliveryAssignment) error {
	if assignment == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "assignment is nil")
	}
	if assignment.DriverID == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "delivered assignment has no driver")
	}

	metadata, err := json.Marshal(deliveryMetadata{
		OrderID:    assignment.OrderID,
		DistanceKm: assignment.TotalDistanceKm,
		Priority:   string(assignment.Priority),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal ledger metadata")
	}

	assignmentID := assignment.ID
	entry := &models.DriverLedgerEntry{
		DriverID:     *assignment.DriverID,
		AssignmentID: &assignmentID,
		Type:         enums.LedgerEntryDeliveryEarning,
		Amount:       assignment.TotalEarning,
		Metadata:     metadata,
	}
	if err := s.repo.WithTx(tx).Insert(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "assignment") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record delivery earning")
	}
	return nil
}

// Earnings reports the driver's totals for a UTC-aligned window ending now.
func (s *service) Earnings(ctx context.Context, driverID uuid.UUID, window enums.EarningsWindow) (*EarningsSummary, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	if !window.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window must be day, week, or month")
	}

	now := time.Now().UTC()
	from := windowStart(window, now)
	total, deliveries, err := s.repo.SumDeliveries(ctx, driverID, from, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum earnings")
	}

	return &EarningsSummary{
		Window:     window,
		From:       from,
		To:         now,
		TotalMinor: total,
		Deliveries: deliveries,
	}, nil
}

// windowStart returns the UTC boundary the window opens at: midnight today,
// Monday midnight this week, or the first of this month.
func windowStart(window enums.EarningsWindow, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch window {
	case enums.EarningsWindowWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset)
	case enums.EarningsWindowMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return midnight
	}
}
