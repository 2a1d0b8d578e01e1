package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
)

type fakeDispatchService struct {
	lastReq  types.DispatchQueryRequest
	response *types.DispatchQueryResponse
	err      error
}

func (f *fakeDispatchService) Query(ctx context.Context, req types.DispatchQueryRequest) (*types.DispatchQueryResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.response == nil {
		f.response = &types.DispatchQueryResponse{}
	}
	return f.response, nil
}

func TestServiceQueryReturnsResponse(t *testing.T) {
	fake := &fakeDispatchService{}
	srv := &service{dispatch: fake}
	now := time.Now().UTC()
	req := types.DispatchQueryRequest{
		ChefID:       "chef-id",
		DeliveryArea: "Yaba",
		Start:        now,
		End:          now.Add(2 * time.Hour),
	}

	resp, err := srv.Query(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != fake.response {
		t.Fatalf("expected response to be forwarded")
	}
	if fake.lastReq.ChefID != req.ChefID {
		t.Fatalf("unexpected request chef id: %s", fake.lastReq.ChefID)
	}
	if fake.lastReq.DeliveryArea != req.DeliveryArea {
		t.Fatalf("unexpected delivery area: %s", fake.lastReq.DeliveryArea)
	}
	if !fake.lastReq.Start.Equal(req.Start) || !fake.lastReq.End.Equal(req.End) {
		t.Fatalf("unexpected request window: %v - %v", fake.lastReq.Start, fake.lastReq.End)
	}
}

func TestServiceQueryPropagatesError(t *testing.T) {
	want := errors.New("query failed")
	fake := &fakeDispatchService{err: want}
	srv := &service{dispatch: fake}
	now := time.Now().UTC()
	req := types.DispatchQueryRequest{
		Start: now,
		End:   now.Add(time.Minute),
	}

	resp, err := srv.Query(context.Background(), req)
	if err != want {
		t.Fatalf("expected error %v, got %v", want, err)
	}
	if resp != nil {
		t.Fatalf("expected nil response on error")
	}
}
