package types

import "time"

// DispatchQueryRequest carries the input parameters for dispatch KPI queries.
// ChefID and DeliveryArea narrow the scope; both empty means fleet-wide.
type DispatchQueryRequest struct {
	ChefID       string
	DeliveryArea string
	Start        time.Time
	End          time.Time
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue represents a top-N entry such as area/driver.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// DispatchQueryResponse wraps the dispatch KPIs for the ops dashboard.
type DispatchQueryResponse struct {
	DeliveriesSeries    []TimeSeriesPoint `json:"deliveries"`
	EarningsSeries      []TimeSeriesPoint `json:"earnings"`
	CancellationsSeries []TimeSeriesPoint `json:"cancellations"`
	TopAreas            []LabelValue      `json:"top_areas"`
	TopDrivers          []LabelValue      `json:"top_drivers"`
	AvgDeliveryMinutes  float64           `json:"avg_delivery_minutes"`
	DeliveredCount      int64             `json:"delivered_count"`
	CancelledCount      int64             `json:"cancelled_count"`
}
