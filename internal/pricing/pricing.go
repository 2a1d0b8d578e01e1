package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feastline/dispatch-backend/internal/geo"
	"github.com/feastline/dispatch-backend/pkg/config"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// Quote is the deterministic earnings breakdown for one delivery. Money is
// integer minor units (kobo).
type Quote struct {
	DistanceKm            float64
	EstimatedDurationMin  int
	BaseFee               int64
	DistanceFee           int64
	TotalEarning          int64
	EstimatedPickupTime   time.Time
	EstimatedDeliveryTime time.Time
}

// Calculator prices deliveries from great-circle distance and priority.
// All fee arithmetic runs through decimal so multiplier math stays exact.
type Calculator struct {
	baseFee       decimal.Decimal
	perKmRate     decimal.Decimal
	minBillableKm float64
	prepBuffer    time.Duration
	avgSpeedKmh   float64
	multipliers   map[enums.AssignmentPriority]decimal.Decimal
}

// NewCalculator builds a calculator from pricing configuration. Values that
// would break the math are clamped to their defaults.
func NewCalculator(cfg config.PricingConfig) *Calculator {
	if cfg.AvgSpeedKmh <= 0 {
		cfg.AvgSpeedKmh = 25
	}
	if cfg.MinBillableKm < 0 {
		cfg.MinBillableKm = 0
	}
	if cfg.PrepBuffer < 0 {
		cfg.PrepBuffer = 0
	}

	high := decimal.NewFromFloat(cfg.HighMultiplier)
	if high.LessThanOrEqual(decimal.Zero) {
		high = decimal.NewFromFloat(1.2)
	}
	urgent := decimal.NewFromFloat(cfg.UrgentMultiplier)
	if urgent.LessThanOrEqual(decimal.Zero) {
		urgent = decimal.NewFromFloat(1.5)
	}

	one := decimal.NewFromInt(1)
	return &Calculator{
		baseFee:       decimal.NewFromInt(cfg.BaseFee),
		perKmRate:     decimal.NewFromInt(cfg.PerKmRate),
		minBillableKm: cfg.MinBillableKm,
		prepBuffer:    cfg.PrepBuffer,
		avgSpeedKmh:   cfg.AvgSpeedKmh,
		multipliers: map[enums.AssignmentPriority]decimal.Decimal{
			enums.AssignmentPriorityLow:    one,
			enums.AssignmentPriorityNormal: one,
			enums.AssignmentPriorityHigh:   high,
			enums.AssignmentPriorityUrgent: urgent,
		},
	}
}

// Distance returns the haversine distance between two points in km.
func (c *Calculator) Distance(from, to types.GeographyPoint) float64 {
	return geo.DistanceKm(from.Lat, from.Lng, to.Lat, to.Lng)
}

// Quote computes the earnings breakdown and time estimates for a delivery.
// Fee math never reads the clock; time estimates derive from the supplied now.
func (c *Calculator) Quote(from, to types.GeographyPoint, priority enums.AssignmentPriority, now time.Time) Quote {
	distanceKm := c.Distance(from, to)
	if distanceKm < c.minBillableKm {
		distanceKm = c.minBillableKm
	}

	distanceFee := decimal.NewFromFloat(distanceKm).Mul(c.perKmRate).Floor().IntPart()
	totalEarning := c.baseFee.
		Add(decimal.NewFromInt(distanceFee)).
		Mul(c.multiplierFor(priority)).
		Floor().
		IntPart()

	travel := time.Duration(distanceKm / c.avgSpeedKmh * float64(time.Hour))
	pickupAt := now.Add(c.prepBuffer)
	deliveryAt := pickupAt.Add(travel)

	return Quote{
		DistanceKm:            distanceKm,
		EstimatedDurationMin:  int(math.Ceil((c.prepBuffer + travel).Minutes())),
		BaseFee:               c.baseFee.IntPart(),
		DistanceFee:           distanceFee,
		TotalEarning:          totalEarning,
		EstimatedPickupTime:   pickupAt,
		EstimatedDeliveryTime: deliveryAt,
	}
}

func (c *Calculator) multiplierFor(priority enums.AssignmentPriority) decimal.Decimal {
	if multiplier, ok := c.multipliers[priority]; ok {
		return multiplier
	}
	return decimal.NewFromInt(1)
}
