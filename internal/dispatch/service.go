package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/internal/assignment"
	"github.com/feastline/dispatch-backend/internal/chefs"
	"github.com/feastline/dispatch-backend/internal/codes"
	"github.com/feastline/dispatch-backend/internal/geo"
	"github.com/feastline/dispatch-backend/internal/notifications"
	"github.com/feastline/dispatch-backend/internal/orders"
	"github.com/feastline/dispatch-backend/internal/pricing"
	"github.com/feastline/dispatch-backend/internal/realtime"
	"github.com/feastline/dispatch-backend/internal/subscriptions"
	"github.com/feastline/dispatch-backend/pkg/config"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/metrics"
	"github.com/feastline/dispatch-backend/pkg/outbox"
	"github.com/feastline/dispatch-backend/pkg/pagination"
	"github.com/feastline/dispatch-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type driverPool interface {
	GetDriver(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Driver, error)
	ClaimForDispatch(ctx context.Context, driverID uuid.UUID) (bool, error)
	Release(ctx context.Context, driverID uuid.UUID) error
}

type candidateSource interface {
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]geo.Candidate, error)
}

type codeSource interface {
	Generate(ctx context.Context, inUse codes.InUseFunc) (string, error)
}

type quoter interface {
	Quote(from, to types.GeographyPoint, priority enums.AssignmentPriority, now time.Time) pricing.Quote
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type earningsRecorder interface {
	RecordDelivery(ctx context.Context, tx *gorm.DB, a *models.DeliveryAssignment) error
}

type notifier interface {
	NotifyAssignmentEvent(ctx context.Context, in notifications.AssignmentEventInput) error
	NotifySubscriptionActivated(ctx context.Context, subscription *models.MealSubscription, assignmentID uuid.UUID) error
}

type realtimeFeed interface {
	Publish(ctx context.Context, channel string, event realtime.Event) error
}

// Service orchestrates the delivery assignment lifecycle across the
// assignment store, driver pool, geo index, pricing, outbox, and the
// post-commit side-effect surfaces.
type Service interface {
	CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*models.DeliveryAssignment, error)
	CreateSubscriptionDelivery(ctx context.Context, subscription *models.MealSubscription) (*models.DeliveryAssignment, error)
	Accept(ctx context.Context, assignmentID, driverID uuid.UUID) (*models.DeliveryAssignment, error)
	AutoAssign(ctx context.Context, assignmentID uuid.UUID) (*AutoAssignResult, error)
	UpdateStatus(ctx context.Context, in UpdateStatusInput) (*models.DeliveryAssignment, error)
	Cancel(ctx context.Context, assignmentID uuid.UUID, actor enums.CancelActor, reason string) (*models.DeliveryAssignment, error)
	Reassign(ctx context.Context, assignmentID, newDriverID uuid.UUID, reason string) (*models.DeliveryAssignment, error)
	GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.DeliveryAssignment, error)
	ListAssignments(ctx context.Context, q ListAssignmentsQuery) ([]models.DeliveryAssignment, *pagination.Cursor, error)
	SweepUnmatched(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// ListAssignmentsQuery filters assignment listings.
type ListAssignmentsQuery struct {
	Status   *enums.AssignmentStatus
	DriverID *uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
}

// ServiceParams collects the orchestrator's dependencies. Notifications,
// Realtime, and Metrics are optional; everything else is required.
type ServiceParams struct {
	Tx            txRunner
	Assignments   assignment.Repository
	Orders        orders.Repository
	Chefs         chefs.Repository
	Subscriptions subscriptions.Repository
	Drivers       driverPool
	Geo           candidateSource
	Codes         codeSource
	Pricing       quoter
	Outbox        outboxEmitter
	Ledger        earningsRecorder
	Notifications notifier
	Realtime      realtimeFeed
	Metrics       *metrics.DispatchMetrics
	Config        config.DispatchConfig
	Logger        *logger.Logger
}

type service struct {
	tx            txRunner
	assignments   assignment.Repository
	orders        orders.Repository
	chefs         chefs.Repository
	subscriptions subscriptions.Repository
	drivers       driverPool
	geoIndex      candidateSource
	codes         codeSource
	pricing       quoter
	outbox        outboxEmitter
	ledger        earningsRecorder
	notifications notifier
	realtime      realtimeFeed
	metrics       *metrics.DispatchMetrics
	logg          *logger.Logger

	searchRadiiKm    []float64
	maxCandidates    int
	pickupProximityM float64
}

// NewService builds the dispatch orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Assignments == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Chefs == nil {
		return nil, fmt.Errorf("chef repository required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if params.Drivers == nil {
		return nil, fmt.Errorf("driver pool required")
	}
	if params.Geo == nil {
		return nil, fmt.Errorf("geo index required")
	}
	if params.Codes == nil {
		return nil, fmt.Errorf("code generator required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	radii := params.Config.SearchRadiiKm
	if len(radii) == 0 {
		radii = []float64{3, 5, 10}
	}
	maxCandidates := params.Config.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	proximity := params.Config.PickupProximityM
	if proximity <= 0 {
		proximity = 300
	}

	return &service{
		tx:               params.Tx,
		assignments:      params.Assignments,
		orders:           params.Orders,
		chefs:            params.Chefs,
		subscriptions:    params.Subscriptions,
		drivers:          params.Drivers,
		geoIndex:         params.Geo,
		codes:            params.Codes,
		pricing:          params.Pricing,
		outbox:           params.Outbox,
		ledger:           params.Ledger,
		notifications:    params.Notifications,
		realtime:         params.Realtime,
		metrics:          params.Metrics,
		logg:             params.Logger,
		searchRadiiKm:    radii,
		maxCandidates:    maxCandidates,
		pickupProximityM: proximity,
	}, nil
}

func (s *service) GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.DeliveryAssignment, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	return s.loadAssignment(ctx, assignmentID)
}

func (s *service) ListAssignments(ctx context.Context, q ListAssignmentsQuery) ([]models.DeliveryAssignment, *pagination.Cursor, error) {
	if q.Status != nil && !q.Status.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid assignment status")
	}
	rows, cursor, err := s.assignments.List(ctx, assignment.ListQuery{
		Status:   q.Status,
		DriverID: q.DriverID,
		Limit:    q.Limit,
		Cursor:   q.Cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return rows, cursor, nil
}

func (s *service) loadAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.DeliveryAssignment, error) {
	row, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup assignment")
	}
	return row, nil
}

// ensureDriverFree rejects drivers already carrying a live delivery. The
// busy/available CAS on claim backs this check under concurrency.
func (s *service) ensureDriverFree(ctx context.Context, driverID uuid.UUID) error {
	_, err := s.drivers.GetDriver(ctx, driverID)
	if err != nil {
		return err
	}
	active, err := s.assignments.FindActiveByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check driver workload")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "driver already has an active delivery").
		WithDetails(map[string]any{"assignment_id": active.ID})
}

func (s *service) releaseDriver(ctx context.Context, driverID uuid.UUID) {
	if err := s.drivers.Release(ctx, driverID); err != nil {
		s.logg.Error(s.logg.WithDriverID(ctx, driverID.String()), "driver release failed", err)
	}
}
