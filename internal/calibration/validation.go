package calibration

import (
	"math"

	"github.com/gioe/aiq-assessment/internal/model"
)

// ParamPair is one item's classical-vs-IRT difficulty pairing used for
// validation: classical p-value converted to a logit scale against the
// newly fitted b.
type ParamPair struct {
	ClassicalB float64
	FittedB    float64
}

// Validate computes Pearson r and RMSE between classical-derived and
// freshly-fitted difficulty parameters, and buckets the result into a fit
// category, per spec §4.I. Returns Sufficient=false (category left at its
// zero value) when fewer than MinItemsForValidation pairs are supplied.
func Validate(pairs []ParamPair, t Tunables) model.CalibrationValidation {
	if len(pairs) < t.MinItemsForValidation {
		return model.CalibrationValidation{ItemsUsed: len(pairs), Sufficient: false}
	}

	n := float64(len(pairs))
	var sumX, sumY, sumXY, sumXX, sumYY, sumSqErr float64
	for _, p := range pairs {
		x, y := p.ClassicalB, p.FittedB
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
		d := x - y
		sumSqErr += d * d
	}

	r := pearsonR(n, sumX, sumY, sumXY, sumXX, sumYY)
	rmse := math.Sqrt(sumSqErr / n)

	return model.CalibrationValidation{
		PearsonR:   r,
		RMSE:       rmse,
		Category:   categorize(r, rmse),
		ItemsUsed:  len(pairs),
		Sufficient: true,
	}
}

func pearsonR(n, sumX, sumY, sumXY, sumXX, sumYY float64) float64 {
	num := n*sumXY - sumX*sumY
	den := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if den == 0 {
		return 0
	}
	return num / den
}

// categorize maps (r, rmse) to a fit category, per spec §4.I: good
// requires r > 0.80 and RMSE < 0.50; moderate only requires r > 0.60;
// everything else is poor.
func categorize(r, rmse float64) model.FitCategory {
	switch {
	case r > 0.80 && rmse < 0.50:
		return model.FitGood
	case r > 0.60:
		return model.FitModerate
	default:
		return model.FitPoor
	}
}
