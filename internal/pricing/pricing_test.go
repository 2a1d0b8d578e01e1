package pricing

import (
	"testing"
	"time"

	"github.com/feastline/dispatch-backend/pkg/config"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

func defaultPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		BaseFee:          500,
		PerKmRate:        100,
		MinBillableKm:    0.5,
		HighMultiplier:   1.2,
		UrgentMultiplier: 1.5,
		PrepBuffer:       10 * time.Minute,
		AvgSpeedKmh:      25,
	}
}

func TestQuoteLagosCrossTown(t *testing.T) {
	calc := NewCalculator(defaultPricingConfig())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	victoriaIsland := types.GeographyPoint{Lat: 6.4281, Lng: 3.4219}
	ikeja := types.GeographyPoint{Lat: 6.5244, Lng: 3.3792}

	quote := calc.Quote(victoriaIsland, ikeja, enums.AssignmentPriorityNormal, now)
	if quote.DistanceKm < 11.6 || quote.DistanceKm > 11.8 {
		t.Fatalf("expected ~11.7 km, got %f", quote.DistanceKm)
	}
	if quote.BaseFee != 500 {
		t.Fatalf("expected base fee 500, got %d", quote.BaseFee)
	}
	if quote.DistanceFee != 1170 {
		t.Fatalf("expected distance fee 1170, got %d", quote.DistanceFee)
	}
	if quote.TotalEarning != 1670 {
		t.Fatalf("expected total 1670, got %d", quote.TotalEarning)
	}

	urgent := calc.Quote(victoriaIsland, ikeja, enums.AssignmentPriorityUrgent, now)
	if urgent.TotalEarning != 2505 {
		t.Fatalf("expected urgent total floor(1670*1.5)=2505, got %d", urgent.TotalEarning)
	}
}

func TestQuoteTwelvePointThreeKilometres(t *testing.T) {
	calc := NewCalculator(defaultPricingConfig())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// Due north from Victoria Island, 12.31 km.
	from := types.GeographyPoint{Lat: 6.4281, Lng: 3.4219}
	to := types.GeographyPoint{Lat: 6.5388, Lng: 3.4219}

	normal := calc.Quote(from, to, enums.AssignmentPriorityNormal, now)
	if normal.DistanceFee != 1230 {
		t.Fatalf("expected distance fee 1230, got %d", normal.DistanceFee)
	}
	if normal.TotalEarning != 1730 {
		t.Fatalf("expected total 1730, got %d", normal.TotalEarning)
	}

	high := calc.Quote(from, to, enums.AssignmentPriorityHigh, now)
	if high.TotalEarning != 2076 {
		t.Fatalf("expected high total floor(1730*1.2)=2076, got %d", high.TotalEarning)
	}

	urgent := calc.Quote(from, to, enums.AssignmentPriorityUrgent, now)
	if urgent.TotalEarning != 2595 {
		t.Fatalf("expected urgent total floor(1730*1.5)=2595, got %d", urgent.TotalEarning)
	}

	low := calc.Quote(from, to, enums.AssignmentPriorityLow, now)
	if low.TotalEarning != normal.TotalEarning {
		t.Fatalf("expected low priced as normal, got %d vs %d", low.TotalEarning, normal.TotalEarning)
	}
}

func TestQuoteClampsShortHops(t *testing.T) {
	calc := NewCalculator(defaultPricingConfig())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	from := types.GeographyPoint{Lat: 6.4281, Lng: 3.4219}
	to := types.GeographyPoint{Lat: 6.4290, Lng: 3.4219}

	quote := calc.Quote(from, to, enums.AssignmentPriorityNormal, now)
	if quote.DistanceKm != 0.5 {
		t.Fatalf("expected distance clamped to 0.5 km, got %f", quote.DistanceKm)
	}
	if quote.DistanceFee != 50 {
		t.Fatalf("expected distance fee 50, got %d", quote.DistanceFee)
	}
	if quote.TotalEarning != 550 {
		t.Fatalf("expected total 550, got %d", quote.TotalEarning)
	}
}

func TestQuoteTimeEstimates(t *testing.T) {
	calc := NewCalculator(defaultPricingConfig())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	from := types.GeographyPoint{Lat: 6.4281, Lng: 3.4219}
	to := types.GeographyPoint{Lat: 6.5244, Lng: 3.3792}

	quote := calc.Quote(from, to, enums.AssignmentPriorityNormal, now)
	if !quote.EstimatedPickupTime.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("expected pickup at now+prep, got %s", quote.EstimatedPickupTime)
	}
	if !quote.EstimatedDeliveryTime.After(quote.EstimatedPickupTime) {
		t.Fatalf("expected delivery after pickup")
	}
	// ~11.7 km at 25 km/h is ~28.1 minutes of travel on top of the prep buffer.
	if quote.EstimatedDurationMin != 39 {
		t.Fatalf("expected 39 minute estimate, got %d", quote.EstimatedDurationMin)
	}

	again := calc.Quote(from, to, enums.AssignmentPriorityNormal, now)
	if again != quote {
		t.Fatalf("expected deterministic quotes, got %+v vs %+v", again, quote)
	}
}

func TestQuoteUnknownPriorityPricedAsNormal(t *testing.T) {
	calc := NewCalculator(defaultPricingConfig())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	from := types.GeographyPoint{Lat: 6.4281, Lng: 3.4219}
	to := types.GeographyPoint{Lat: 6.5244, Lng: 3.3792}

	unknown := calc.Quote(from, to, enums.AssignmentPriority("rush"), now)
	normal := calc.Quote(from, to, enums.AssignmentPriorityNormal, now)
	if unknown.TotalEarning != normal.TotalEarning {
		t.Fatalf("expected unknown priority priced as normal, got %d vs %d", unknown.TotalEarning, normal.TotalEarning)
	}
}

func TestNewCalculatorClampsBrokenConfig(t *testing.T) {
	calc := NewCalculator(config.PricingConfig{
		BaseFee:          500,
		PerKmRate:        100,
		MinBillableKm:    -1,
		HighMultiplier:   0,
		UrgentMultiplier: -2,
		PrepBuffer:       -time.Minute,
		AvgSpeedKmh:      0,
	})
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	from := types.GeographyPoint{Lat: 6.4281, Lng: 3.4219}
	to := types.GeographyPoint{Lat: 6.5388, Lng: 3.4219}

	high := calc.Quote(from, to, enums.AssignmentPriorityHigh, now)
	if high.TotalEarning != 2076 {
		t.Fatalf("expected clamped high multiplier 1.2, got total %d", high.TotalEarning)
	}
	urgent := calc.Quote(from, to, enums.AssignmentPriorityUrgent, now)
	if urgent.TotalEarning != 2595 {
		t.Fatalf("expected clamped urgent multiplier 1.5, got total %d", urgent.TotalEarning)
	}
	if !urgent.EstimatedPickupTime.Equal(now) {
		t.Fatalf("expected zero prep buffer, got pickup %s", urgent.EstimatedPickupTime)
	}
}
