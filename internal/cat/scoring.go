package cat

import (
	"math"

	"github.com/gioe/aiq-assessment/internal/model"
)

const (
	iqMean       = 100.0
	iqPerTheta   = 15.0
	iqMin        = 40
	iqMax        = 160
	iqCIMultiple = 1.96
)

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ThetaToIQ converts an ability estimate to the clamped IQ scale.
func ThetaToIQ(theta float64) int {
	raw := int(math.Round(iqMean + iqPerTheta*theta))
	return clampInt(raw, iqMin, iqMax)
}

// ScoreResult converts a final theta/SE pair and per-domain counts into
// the reportable Result, per spec §4.H "Result conversion".
func ScoreResult(sessionID int64, theta, se float64, itemsAdministered int, reason model.StoppingReason, counts map[model.Domain]*model.DomainCount) model.Result {
	iq := ThetaToIQ(theta)
	iqSE := iqPerTheta * se
	low := clampInt(int(math.Round(float64(iq)-iqCIMultiple*iqSE)), iqMin, iqMax)
	high := clampInt(int(math.Round(float64(iq)+iqCIMultiple*iqSE)), iqMin, iqMax)

	scores := make([]model.DomainScore, 0, len(model.Domains))
	for _, d := range model.Domains {
		items, correct := 0, 0
		if c, ok := counts[d]; ok {
			items, correct = c.Served, c.Correct
		}
		acc := 0.0
		if items > 0 {
			acc = float64(correct) / float64(items)
		}
		scores = append(scores, model.DomainScore{Domain: d, Items: items, Correct: correct, Accuracy: acc})
	}

	return model.Result{
		SessionID:         sessionID,
		Theta:             theta,
		SE:                se,
		IQ:                iq,
		IQSE:              iqSE,
		IQLow:             low,
		IQHigh:            high,
		ItemsAdministered: itemsAdministered,
		StoppingReason:    reason,
		DomainScores:      scores,
	}
}
