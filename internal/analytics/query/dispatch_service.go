package query

import (
	"context"
	"fmt"
	"strings"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/bigquery"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"google.golang.org/api/iterator"
)

// chef_id and delivery_area land only on assignment_created rows, so scoped
// queries resolve the matching assignment ids first and semi-join the
// lifecycle rows against them.
const (
	deliveriesSeriesSQL = `
WITH scoped AS (
  SELECT DISTINCT assignment_id
  FROM %s
  WHERE %s
    AND event_type = 'assignment_created'
    AND assignment_id IS NOT NULL
)
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at)) AS day,
  COUNT(*) AS value
FROM %s
WHERE event_type = 'assignment_delivered'
  AND assignment_id IN (SELECT assignment_id FROM scoped)
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	earningsSeriesSQL = `
WITH scoped AS (
  SELECT DISTINCT assignment_id
  FROM %s
  WHERE %s
    AND event_type = 'assignment_created'
    AND assignment_id IS NOT NULL
)
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at)) AS day,
  SUM(COALESCE(earning_cents, 0)) AS value
FROM %s
WHERE event_type = 'assignment_delivered'
  AND assignment_id IN (SELECT assignment_id FROM scoped)
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	cancellationsSeriesSQL = `
WITH scoped AS (
  SELECT DISTINCT assignment_id
  FROM %s
  WHERE %s
    AND event_type = 'assignment_created'
    AND assignment_id IS NOT NULL
)
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at)) AS day,
  COUNT(*) AS value
FROM %s
WHERE event_type = 'assignment_cancelled'
  AND assignment_id IN (SELECT assignment_id FROM scoped)
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topAreasSQL = `
SELECT delivery_area AS label, COUNT(*) AS value
FROM %s
WHERE %s
  AND delivery_area IS NOT NULL
  AND event_type = 'assignment_created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY delivery_area
ORDER BY value DESC
LIMIT 5
`

	topDriversSQL = `
WITH scoped AS (
  SELECT DISTINCT assignment_id
  FROM %s
  WHERE %s
    AND event_type = 'assignment_created'
    AND assignment_id IS NOT NULL
)
SELECT driver_id AS label, SUM(COALESCE(earning_cents, 0)) AS value
FROM %s
WHERE driver_id IS NOT NULL
  AND event_type = 'assignment_delivered'
  AND assignment_id IN (SELECT assignment_id FROM scoped)
  AND occurred_at BETWEEN @start AND @end
GROUP BY driver_id
ORDER BY value DESC
LIMIT 5
`

	avgDeliveryMinutesSQL = `
WITH scoped AS (
  SELECT DISTINCT assignment_id
  FROM %s
  WHERE %s
    AND event_type = 'assignment_created'
    AND assignment_id IS NOT NULL
),
created AS (
  SELECT assignment_id, MIN(occurred_at) AS created_at
  FROM %s
  WHERE event_type = 'assignment_created'
    AND assignment_id IN (SELECT assignment_id FROM scoped)
  GROUP BY assignment_id
),
delivered AS (
  SELECT assignment_id, MAX(occurred_at) AS delivered_at
  FROM %s
  WHERE event_type = 'assignment_delivered'
    AND assignment_id IN (SELECT assignment_id FROM scoped)
    AND occurred_at BETWEEN @start AND @end
  GROUP BY assignment_id
)
SELECT AVG(TIMESTAMP_DIFF(delivered.delivered_at, created.created_at, SECOND) / 60.0) AS value
FROM delivered
JOIN created USING (assignment_id)
`

	outcomeCountsSQL = `
WITH scoped AS (
  SELECT DISTINCT assignment_id
  FROM %s
  WHERE %s
    AND event_type = 'assignment_created'
    AND assignment_id IS NOT NULL
)
SELECT
  COUNTIF(event_type = 'assignment_delivered') AS delivered_count,
  COUNTIF(event_type = 'assignment_cancelled') AS cancelled_count
FROM %s
WHERE event_type IN ('assignment_delivered', 'assignment_cancelled')
  AND assignment_id IN (SELECT assignment_id FROM scoped)
  AND occurred_at BETWEEN @start AND @end
`
)

// DispatchService provides fleet dashboard data from BigQuery assignment_events.
type DispatchService interface {
	Query(ctx context.Context, req types.DispatchQueryRequest) (*types.DispatchQueryResponse, error)
}

type dispatchService struct {
	client   *bigquery.Client
	tableRef string
}

// NewDispatchService builds a service backed by BigQuery.
func NewDispatchService(client *bigquery.Client, project, dataset, table string) (DispatchService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || table == "" {
		return nil, fmt.Errorf("project, dataset, and table are required")
	}
	return &dispatchService{
		client:   client,
		tableRef: fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
	}, nil
}

func (s *dispatchService) Query(ctx context.Context, req types.DispatchQueryRequest) (*types.DispatchQueryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	scope := buildScopeClause(req)
	params := s.baseParams(req)

	deliveries, err := s.querySeries(ctx, fmt.Sprintf(deliveriesSeriesSQL, s.tableRef, scope, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	earnings, err := s.querySeries(ctx, fmt.Sprintf(earningsSeriesSQL, s.tableRef, scope, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	cancellations, err := s.querySeries(ctx, fmt.Sprintf(cancellationsSeriesSQL, s.tableRef, scope, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	topAreas, err := s.queryTopLabels(ctx, fmt.Sprintf(topAreasSQL, s.tableRef, scope), params)
	if err != nil {
		return nil, err
	}
	topDrivers, err := s.queryTopLabels(ctx, fmt.Sprintf(topDriversSQL, s.tableRef, scope, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	avgMinutes, err := s.queryScalarFloat(ctx, fmt.Sprintf(avgDeliveryMinutesSQL, s.tableRef, scope, s.tableRef, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	delivered, cancelled, err := s.queryOutcomeCounts(ctx, fmt.Sprintf(outcomeCountsSQL, s.tableRef, scope, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	return &types.DispatchQueryResponse{
		DeliveriesSeries:    deliveries,
		EarningsSeries:      earnings,
		CancellationsSeries: cancellations,
		TopAreas:            topAreas,
		TopDrivers:          topDrivers,
		AvgDeliveryMinutes:  avgMinutes,
		DeliveredCount:      delivered,
		CancelledCount:      cancelled,
	}, nil
}

func validateRequest(req types.DispatchQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func buildScopeClause(req types.DispatchQueryRequest) string {
	var clauses []string
	if strings.TrimSpace(req.ChefID) != "" {
		clauses = append(clauses, "chef_id = @chefID")
	}
	if strings.TrimSpace(req.DeliveryArea) != "" {
		clauses = append(clauses, "delivery_area = @area")
	}
	if len(clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(clauses, " AND ")
}

func (s *dispatchService) baseParams(req types.DispatchQueryRequest) []cloudbigquery.QueryParameter {
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}
	if strings.TrimSpace(req.ChefID) != "" {
		params = append(params, cloudbigquery.QueryParameter{Name: "chefID", Value: req.ChefID})
	}
	if strings.TrimSpace(req.DeliveryArea) != "" {
		params = append(params, cloudbigquery.QueryParameter{Name: "area", Value: req.DeliveryArea})
	}
	return params
}

func (s *dispatchService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	var points []types.TimeSeriesPoint
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *dispatchService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	var result []types.LabelValue
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *dispatchService) queryScalarFloat(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query scalar: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading scalar row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}

func (s *dispatchService) queryOutcomeCounts(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (int64, int64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, 0, fmt.Errorf("query outcome counts: %w", err)
	}
	var row struct {
		DeliveredCount int64 `bigquery:"delivered_count"`
		CancelledCount int64 `bigquery:"cancelled_count"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading outcome counts row: %w", err)
	}
	return row.DeliveredCount, row.CancelledCount, nil
}
