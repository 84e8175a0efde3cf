// Package forecast consumes day-by-day predictions from the remote SARIMA
// service and shapes them for display: weekly buckets, per-point confidence
// scores, and summary totals. It never invents missing values; the points it
// is handed are the points it works with.
package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Point is a single day of the prediction service's forecast. The bounds are
// assumed to straddle the amount but are not trusted.
type Point struct {
	Date       string          `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	LowerBound decimal.Decimal `json:"lower_bound"`
	UpperBound decimal.Decimal `json:"upper_bound"`
}

// WeekBucket summarizes up to seven consecutive forecast points.
type WeekBucket struct {
	Label   string          `json:"label"`
	Average decimal.Decimal `json:"average"`
	Total   decimal.Decimal `json:"total"`
	Size    int             `json:"size"`
}

const daysPerBucket = 7

var (
	hundred = decimal.NewFromInt(100)
	fifty   = decimal.NewFromInt(50)
)

// WeeklyBuckets chunks points into runs of up to seven starting at index
// zero. Buckets are positional, not aligned to calendar weeks, and the last
// one may be partial.
func WeeklyBuckets(points []Point) []WeekBucket {
	buckets := make([]WeekBucket, 0, (len(points)+daysPerBucket-1)/daysPerBucket)
	for i := 0; i < len(points); i += daysPerBucket {
		end := min(i+daysPerBucket, len(points))
		week := points[i:end]
		total := decimal.Zero
		for _, p := range week {
			total = total.Add(p.Amount)
		}
		size := int64(len(week))
		buckets = append(buckets, WeekBucket{
			Label:   fmt.Sprintf("Week %d", i/daysPerBucket+1),
			Average: total.Div(decimal.NewFromInt(size)),
			Total:   total,
			Size:    len(week),
		})
	}
	return buckets
}

// Confidence scores a forecast point on [0,100] from the width of its
// confidence interval relative to the predicted amount: 100 - (width/amount)*50,
// clamped. A zero amount would divide by zero; those points score 0, the
// widest-interval reading.
func Confidence(p Point) decimal.Decimal {
	if p.Amount.IsZero() {
		return decimal.Zero
	}
	width := p.UpperBound.Sub(p.LowerBound)
	raw := hundred.Sub(width.Div(p.Amount).Mul(fifty))
	if raw.IsNegative() {
		return decimal.Zero
	}
	if raw.GreaterThan(hundred) {
		return hundred
	}
	return raw
}

// Summary returns the total and per-point average of the forecast amounts.
// An empty forecast yields zeros rather than a division by zero.
func Summary(points []Point) (total, average decimal.Decimal) {
	total, average = decimal.Zero, decimal.Zero
	if len(points) == 0 {
		return total, average
	}
	for _, p := range points {
		total = total.Add(p.Amount)
	}
	average = total.Div(decimal.NewFromInt(int64(len(points))))
	return total, average
}
