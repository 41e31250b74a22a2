package pipeline

import "math"

// DriftEvent describes one timestamp gap whose deviation from the expected
// inter-sample interval exceeds the configured threshold.
type DriftEvent struct {
	Index            int     // index of the gap's trailing timestamp
	GapMillis        float64 // observed gap
	ExpectedMillis   float64 // expected gap at the expected rate
	DeviationPercent float64
}

// DriftConfig enables timestamp drift detection. ExpectedRate 0 adopts the
// sample rate of each call.
type DriftConfig struct {
	ExpectedRate     float64
	ThresholdPercent float64
	OnDrift          func(DriftEvent)
}

// driftDetector validates timestamp monotonicity and estimates the realized
// sample rate. It is a read-only observer: it never touches the sample
// buffer, and its callback is best-effort.
type driftDetector struct {
	cfg DriftConfig

	expectedRate  float64
	lastTimestamp float64
	firstStamp    float64
	sampleCount   int
}

func newDriftDetector(cfg DriftConfig, rate float64) *driftDetector {
	expected := cfg.ExpectedRate
	if expected <= 0 {
		expected = rate
	}

	return &driftDetector{cfg: cfg, expectedRate: expected}
}

// observe consumes one call's timestamps. It returns the count of gaps
// beyond threshold and whether a monotonicity violation was seen.
func (d *driftDetector) observe(timestamps []float64) (drifts int, monotonic bool) {
	monotonic = true

	if d.expectedRate <= 0 {
		return 0, true
	}

	expectedGap := 1000 / d.expectedRate

	for i, ts := range timestamps {
		if d.sampleCount == 0 && i == 0 {
			d.firstStamp = ts
			d.lastTimestamp = ts
			d.sampleCount = 1

			continue
		}

		if ts < d.lastTimestamp {
			monotonic = false
			d.lastTimestamp = ts
			d.sampleCount++

			continue
		}

		gap := ts - d.lastTimestamp

		deviation := math.Abs(gap-expectedGap) / expectedGap * 100
		if deviation > d.cfg.ThresholdPercent {
			drifts++

			if d.cfg.OnDrift != nil {
				d.cfg.OnDrift(DriftEvent{
					Index:            i,
					GapMillis:        gap,
					ExpectedMillis:   expectedGap,
					DeviationPercent: deviation,
				})
			}
		}

		d.lastTimestamp = ts
		d.sampleCount++
	}

	return drifts, monotonic
}

// estimatedRate returns the realized sample rate in Hz inferred from the
// observed timestamps, or 0 before two samples have been seen.
func (d *driftDetector) estimatedRate() float64 {
	if d.sampleCount < 2 {
		return 0
	}

	span := d.lastTimestamp - d.firstStamp
	if span <= 0 {
		return 0
	}

	return float64(d.sampleCount-1) / span * 1000
}
