package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/internal/drivers"
	"github.com/feastline/dispatch-backend/internal/ledger"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
)

type testDriversService struct {
	heartbeatFn func(ctx context.Context, driverID uuid.UUID, in drivers.HeartbeatInput) (*models.Driver, error)
	setStatusFn func(ctx context.Context, driverID uuid.UUID, status enums.DriverStatus) (*models.Driver, error)
}

func (s *testDriversService) Heartbeat(ctx context.Context, driverID uuid.UUID, in drivers.HeartbeatInput) (*models.Driver, error) {
	if s.heartbeatFn != nil {
		return s.heartbeatFn(ctx, driverID, in)
	}
	return nil, nil
}

func (s *testDriversService) SetStatus(ctx context.Context, driverID uuid.UUID, status enums.DriverStatus) (*models.Driver, error) {
	if s.setStatusFn != nil {
		return s.setStatusFn(ctx, driverID, status)
	}
	return nil, nil
}

func (s *testDriversService) GetDriver(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	return nil, nil
}

func (s *testDriversService) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Driver, error) {
	return nil, nil
}

func (s *testDriversService) ClaimForDispatch(ctx context.Context, driverID uuid.UUID) (bool, error) {
	return false, nil
}

func (s *testDriversService) Release(ctx context.Context, driverID uuid.UUID) error {
	return nil
}

func (s *testDriversService) SweepStale(ctx context.Context, lastSeenBefore time.Time, limit int) (int, error) {
	return 0, nil
}

type testLedgerService struct {
	earningsFn func(ctx context.Context, driverID uuid.UUID, window enums.EarningsWindow) (*ledger.EarningsSummary, error)
}

func (s *testLedgerService) RecordDelivery(ctx context.Context, tx *gorm.DB, assignment *models.DeliveryAssignment) error {
	return nil
}

func (s *testLedgerService) Earnings(ctx context.Context, driverID uuid.UUID, window enums.EarningsWindow) (*ledger.EarningsSummary, error) {
	if s.earningsFn != nil {
		return s.earningsFn(ctx, driverID, window)
	}
	return nil, nil
}

func testDriver(id uuid.UUID, status enums.DriverStatus) *models.Driver {
	return &models.Driver{
		ID:     id,
		Name:   "Tunde A.",
		Status: status,
		Rating: 4.8,
	}
}

func TestDriverHeartbeatForwardsPosition(t *testing.T) {
	driverID := uuid.New()

	var got drivers.HeartbeatInput
	svc := &testDriversService{
		heartbeatFn: func(ctx context.Context, dID uuid.UUID, in drivers.HeartbeatInput) (*models.Driver, error) {
			if dID != driverID {
				t.Fatalf("expected driver %s got %s", driverID, dID)
			}
			got = in
			return testDriver(driverID, enums.DriverStatusAvailable), nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drivers/heartbeat", strings.NewReader(`{"lat":6.5244,"lng":3.3792}`))
	req = withViewer(req, driverID.String(), string(enums.RoleDriver))
	resp := httptest.NewRecorder()

	DriverHeartbeat(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.Lat != 6.5244 || got.Lng != 3.3792 {
		t.Fatalf("expected coords forwarded got %+v", got)
	}
	if got.Status != nil {
		t.Fatalf("expected no status got %v", got.Status)
	}
}

func TestDriverHeartbeatParsesOptionalStatus(t *testing.T) {
	driverID := uuid.New()

	var got drivers.HeartbeatInput
	svc := &testDriversService{
		heartbeatFn: func(ctx context.Context, dID uuid.UUID, in drivers.HeartbeatInput) (*models.Driver, error) {
			got = in
			return testDriver(driverID, enums.DriverStatusAvailable), nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drivers/heartbeat", strings.NewReader(`{"lat":6.5,"lng":3.4,"status":"available"}`))
	req = withViewer(req, driverID.String(), string(enums.RoleDriver))
	resp := httptest.NewRecorder()

	DriverHeartbeat(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Status == nil || *got.Status != enums.DriverStatusAvailable {
		t.Fatalf("expected available status got %v", got.Status)
	}
}

func TestDriverHeartbeatRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drivers/heartbeat", strings.NewReader(`{"lat":6.5,"lng":3.4,"status":"napping"}`))
	req = withViewer(req, uuid.NewString(), string(enums.RoleDriver))
	resp := httptest.NewRecorder()

	DriverHeartbeat(&testDriversService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDriverStatusFlipsShift(t *testing.T) {
	driverID := uuid.New()

	var got enums.DriverStatus
	svc := &testDriversService{
		setStatusFn: func(ctx context.Context, dID uuid.UUID, status enums.DriverStatus) (*models.Driver, error) {
			got = status
			return testDriver(driverID, status), nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drivers/status", strings.NewReader(`{"status":"offline"}`))
	req = withViewer(req, driverID.String(), string(enums.RoleDriver))
	resp := httptest.NewRecorder()

	DriverStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got != enums.DriverStatusOffline {
		t.Fatalf("expected offline got %s", got)
	}

	var envelope struct {
		Data driverPayload `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Status != enums.DriverStatusOffline {
		t.Fatalf("expected offline payload got %s", envelope.Data.Status)
	}
}

func TestDriverStatusRequiresBodyField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drivers/status", strings.NewReader(`{}`))
	req = withViewer(req, uuid.NewString(), string(enums.RoleDriver))
	resp := httptest.NewRecorder()

	DriverStatus(&testDriversService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDriverEarningsAllowsOwnLedger(t *testing.T) {
	driverID := uuid.New()

	var gotWindow enums.EarningsWindow
	svc := &testLedgerService{
		earningsFn: func(ctx context.Context, dID uuid.UUID, window enums.EarningsWindow) (*ledger.EarningsSummary, error) {
			if dID != driverID {
				t.Fatalf("expected driver %s got %s", driverID, dID)
			}
			gotWindow = window
			return &ledger.EarningsSummary{Window: window, TotalMinor: 150400, Deliveries: 2}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drivers/"+driverID.String()+"/earnings?window=week", nil)
	req = addRouteParam(req, "driverID", driverID.String())
	req = withViewer(req, driverID.String(), string(enums.RoleDriver))
	resp := httptest.NewRecorder()

	DriverEarnings(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotWindow != enums.EarningsWindowWeek {
		t.Fatalf("expected week window got %s", gotWindow)
	}

	var envelope struct {
		Data ledger.EarningsSummary `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.TotalMinor != 150400 || envelope.Data.Deliveries != 2 {
		t.Fatalf("unexpected summary %+v", envelope.Data)
	}
}

func TestDriverEarningsBlocksOtherDrivers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drivers/"+uuid.NewString()+"/earnings", nil)
	req = addRouteParam(req, "driverID", uuid.NewString())
	req = withViewer(req, uuid.NewString(), string(enums.RoleDriver))
	resp := httptest.NewRecorder()

	DriverEarnings(&testLedgerService{}, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestDriverEarningsAdminReadsAnyDriver(t *testing.T) {
	driverID := uuid.New()
	svc := &testLedgerService{
		earningsFn: func(ctx context.Context, dID uuid.UUID, window enums.EarningsWindow) (*ledger.EarningsSummary, error) {
			return &ledger.EarningsSummary{Window: window}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drivers/"+driverID.String()+"/earnings", nil)
	req = addRouteParam(req, "driverID", driverID.String())
	req = withViewer(req, uuid.NewString(), string(enums.RoleAdmin))
	resp := httptest.NewRecorder()

	DriverEarnings(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestDriverEarningsRejectsUnknownWindow(t *testing.T) {
	driverID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drivers/"+driverID.String()+"/earnings?window=year", nil)
	req = addRouteParam(req, "driverID", driverID.String())
	req = withViewer(req, driverID.String(), string(enums.RoleDriver))
	resp := httptest.NewRecorder()

	DriverEarnings(&testLedgerService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
