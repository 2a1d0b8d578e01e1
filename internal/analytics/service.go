package analytics

import (
	"context"
	"fmt"

	"github.com/feastline/dispatch-backend/internal/analytics/query"
	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/bigquery"
)

// Service provides fleet reports based on dispatch events.
type Service interface {
	// Query returns dispatch KPIs for the provided request.
	Query(ctx context.Context, req types.DispatchQueryRequest) (*types.DispatchQueryResponse, error)
}

type service struct {
	dispatch query.DispatchService
}

// NewService builds an analytics service backed by BigQuery.
func NewService(client *bigquery.Client, project, dataset, table string) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}

	dispatch, err := query.NewDispatchService(client, project, dataset, table)
	if err != nil {
		return nil, err
	}

	return &service{dispatch: dispatch}, nil
}

func (s *service) Query(ctx context.Context, req types.DispatchQueryRequest) (*types.DispatchQueryResponse, error) {
	return s.dispatch.Query(ctx, req)
}
