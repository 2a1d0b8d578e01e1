package analytics

import "time"

// EventTimestamp selects the timestamp recorded on an analytics row.
// Order of preference is the payload's own stamp, then the envelope
// occurred_at, then the fallback. Zero values count as absent.
func EventTimestamp(eventAt, envelopeAt, fallback time.Time) time.Time {
	if !eventAt.IsZero() {
		return eventAt.UTC()
	}
	if !envelopeAt.IsZero() {
		return envelopeAt.UTC()
	}
	return fallback.UTC()
}
