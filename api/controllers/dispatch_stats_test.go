package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
)

type testAnalyticsService struct {
	queryFn func(ctx context.Context, req types.DispatchQueryRequest) (*types.DispatchQueryResponse, error)
}

func (s *testAnalyticsService) Query(ctx context.Context, req types.DispatchQueryRequest) (*types.DispatchQueryResponse, error) {
	if s.queryFn != nil {
		return s.queryFn(ctx, req)
	}
	return nil, nil
}

func TestDispatchStatsForwardsScopedQuery(t *testing.T) {
	chefID := uuid.New()

	var got types.DispatchQueryRequest
	svc := &testAnalyticsService{
		queryFn: func(ctx context.Context, req types.DispatchQueryRequest) (*types.DispatchQueryResponse, error) {
			got = req
			return &types.DispatchQueryResponse{DeliveredCount: 42, AvgDeliveryMinutes: 27.5}, nil
		},
	}

	url := "/api/v1/dispatch/stats?from=2026-03-01T00:00:00Z&to=2026-03-31T00:00:00Z&chef_id=" + chefID.String() + "&delivery_area=Lekki"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()

	DispatchStats(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.ChefID != chefID.String() {
		t.Fatalf("expected chef scope %s got %q", chefID, got.ChefID)
	}
	if got.DeliveryArea != "Lekki" {
		t.Fatalf("expected area scope got %q", got.DeliveryArea)
	}
	wantStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Start.Equal(wantStart) {
		t.Fatalf("expected start %s got %s", wantStart, got.Start)
	}

	var envelope struct {
		Data types.DispatchQueryResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.DeliveredCount != 42 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestDispatchStatsRequiresWindow(t *testing.T) {
	cases := []string{
		"/api/v1/dispatch/stats",
		"/api/v1/dispatch/stats?from=2026-03-01T00:00:00Z",
		"/api/v1/dispatch/stats?to=2026-03-31T00:00:00Z",
	}
	for _, url := range cases {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		resp := httptest.NewRecorder()

		DispatchStats(&testAnalyticsService{}, testLogger())(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", url, resp.Code)
		}
	}
}

func TestDispatchStatsRejectsInvertedWindow(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dispatch/stats?from=2026-03-31T00:00:00Z&to=2026-03-01T00:00:00Z", nil)
	resp := httptest.NewRecorder()

	DispatchStats(&testAnalyticsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDispatchStatsRejectsBadChefID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dispatch/stats?from=2026-03-01T00:00:00Z&to=2026-03-31T00:00:00Z&chef_id=nope", nil)
	resp := httptest.NewRecorder()

	DispatchStats(&testAnalyticsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
