// Package abtest synthesizes and persists A/B test results.
//
// The funnel generator is a placeholder: rates are drawn uniformly from
// fixed ranges and applied with floor arithmetic, which guarantees
// converted <= clicked <= opened <= sent for every variant.
package abtest

import (
	"math"
	"sync"

	"github.com/foxzi/mailpanel/internal/models"
)

// Rand is a source of uniform floats in [0, 1). *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Draw ranges, all half-open [min, max)
var (
	openRange       = [2]float64{0.15, 0.55}
	clickRange      = [2]float64{0.05, 0.25}
	conversionRange = [2]float64{0.01, 0.06}
	revenueRange    = [2]float64{20, 100}
)

// Simulate draws synthetic funnels for two audiences. Draws happen in the
// order openA, openB, clickA, clickB, convA, convB, revA, revB so a seeded
// source always yields the same result. Negative sizes count as 0.
func Simulate(rng Rand, sentA, sentB int) models.ABTestResults {
	sentA, sentB = max(sentA, 0), max(sentB, 0)

	openA, openB := draw(rng, openRange), draw(rng, openRange)
	clickA, clickB := draw(rng, clickRange), draw(rng, clickRange)
	convA, convB := draw(rng, conversionRange), draw(rng, conversionRange)
	revA, revB := draw(rng, revenueRange), draw(rng, revenueRange)

	return models.ABTestResults{
		GroupA: funnel(sentA, openA, clickA, convA, revA),
		GroupB: funnel(sentB, openB, clickB, convB, revB),
	}
}

func draw(rng Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}

func funnel(sent int, openRate, clickRate, convRate, revenuePerConv float64) models.Funnel {
	opened := int(math.Floor(float64(sent) * openRate))
	clicked := int(math.Floor(float64(opened) * clickRate))
	converted := int(math.Floor(float64(clicked) * convRate))
	return models.Funnel{
		Sent:      sent,
		Opened:    opened,
		Clicked:   clicked,
		Converted: converted,
		Revenue:   int(math.Floor(float64(converted) * revenuePerConv)),
	}
}

// Winner returns "A" or "B" for the variant with the higher conversion rate,
// breaking ties on revenue. It returns "" for a draw.
func Winner(r models.ABTestResults) string {
	a, b := r.GroupA, r.GroupB
	switch ra, rb := a.ConversionRate(), b.ConversionRate(); {
	case ra > rb:
		return "A"
	case rb > ra:
		return "B"
	case a.Revenue > b.Revenue:
		return "A"
	case b.Revenue > a.Revenue:
		return "B"
	default:
		return ""
	}
}

// lockedRand serializes access to a Rand shared by concurrent requests
type lockedRand struct {
	mu  sync.Mutex
	rng Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}
