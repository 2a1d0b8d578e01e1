package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
)

// Service fans lifecycle events out to per-recipient notification rows.
// Callers invoke it after commit; a failed write never unwinds dispatch
// state, so errors here are for logging, not rollback.
type Service interface {
	NotifyAssignmentEvent(ctx context.Context, in AssignmentEventInput) error
	NotifySubscriptionActivated(ctx context.Context, subscription *models.MealSubscription, assignmentID uuid.UUID) error
}

type serviceImpl struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the notification writer.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &serviceImpl{repo: repo, logg: logg}, nil
}

func (s *serviceImpl) NotifyAssignmentEvent(ctx context.Context, in AssignmentEventInput) error {
	if in.Assignment == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "assignment required for notification")
	}

	rows := renderAssignmentEvent(in)
	var errs []error
	for i := range rows {
		if err := s.repo.Create(ctx, &rows[i]); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"assignment_id": in.Assignment.ID.String(),
				"event":         string(in.Event),
				"recipient_id":  rows[i].RecipientID.String(),
				"error":         err.Error(),
			})
			s.logg.Warn(logCtx, "notification write failed")
			errs = append(errs, err)
		}
	}
	if combined := multierr.Combine(errs...); combined != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "failed to store notifications")
	}
	return nil
}

func (s *serviceImpl) NotifySubscriptionActivated(ctx context.Context, subscription *models.MealSubscription, assignmentID uuid.UUID) error {
	if subscription == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "subscription required for notification")
	}

	payload, err := json.Marshal(map[string]any{
		"subscription_id":     subscription.ID,
		"first_assignment_id": assignmentID,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode notification payload")
	}

	row := models.Notification{
		RecipientID:   subscription.CustomerRef,
		RecipientRole: enums.RoleCustomer,
		Type:          enums.NotificationTypeSubscriptionActivated,
		Title:         "Meal plan active",
		Message:       "Your first delivery arrived. Your meal plan is now active.",
		Payload:       payload,
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"subscription_id": subscription.ID.String(),
			"error":           err.Error(),
		})
		s.logg.Warn(logCtx, "notification write failed")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store notification")
	}
	return nil
}
