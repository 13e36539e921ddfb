package threat

import (
	"fmt"
	"strings"
)

// Policy holds the fusion weights and thresholds used to turn detector
// signals plus an optional semantic assessment into a final verdict.
type Policy struct {
	// Weights per signal kind. Scores are normalized by the total weight of
	// the signals actually present, so a missing detector never drags the
	// fused score toward zero.
	Weights map[SignalKind]float64

	// ConfidenceFloor is the minimum assessor confidence for the assessment
	// severity to participate in fusion.
	ConfidenceFloor float64

	// ReasonFloors are per-kind minimum scores for a signal to headline the
	// verdict reason.
	ReasonFloors map[SignalKind]float64
}

// DefaultPolicy returns the production fusion policy. Toxicity and fake
// account carry the most weight, sentiment the least.
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[SignalKind]float64{
			SignalToxicity:    0.35,
			SignalFakeAccount: 0.25,
			SignalImageMisuse: 0.20,
			SignalSentiment:   0.10,
		},
		ConfidenceFloor: 0.5,
		ReasonFloors: map[SignalKind]float64{
			SignalToxicity:    0.70,
			SignalSentiment:   0.60,
			SignalFakeAccount: 0.60,
			SignalImageMisuse: 0.80,
		},
	}
}

// LevelForScore maps a fused score to a discrete threat level.
func LevelForScore(score float64) Level {
	switch {
	case score < 0.35:
		return LevelLow
	case score < 0.6:
		return LevelMedium
	case score < 0.85:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// Classify fuses detector signals with an optional assessment into a
// verdict. A nil assessment means the assessor was unavailable; the verdict
// is then computed from detector signals alone. Classify is total: any
// combination of inputs yields a verdict.
func (p Policy) Classify(signals []Signal, assessment *Assessment) Verdict {
	var weighted, totalWeight float64
	for _, sig := range signals {
		w, ok := p.Weights[sig.Kind]
		if !ok {
			continue
		}
		weighted += clamp01(sig.Score) * w
		totalWeight += w
	}

	score := 0.0
	if totalWeight > 0 {
		score = weighted / totalWeight
	}

	escalated := false
	aiAnalysis := ""
	if assessment != nil && assessment.Confidence >= p.ConfidenceFloor {
		severity := clamp01(assessment.Severity)
		if severity > score {
			score = severity
			escalated = true
		}
		aiAnalysis = assessment.Narrative
	} else if assessment != nil {
		// Low-confidence narrative is still worth surfacing to the analyst.
		aiAnalysis = assessment.Narrative
	}

	return Verdict{
		Score:      score,
		Level:      LevelForScore(score),
		Reason:     p.reason(signals, escalated),
		AIAnalysis: aiAnalysis,
	}
}

// reason assembles the explanation from every signal that cleared its
// per-kind floor, in signal order. The escalation note is used only when no
// detector triggered; the generic fallback when nothing stands out at all.
func (p Policy) reason(signals []Signal, escalated bool) string {
	var parts []string
	for _, sig := range signals {
		floor, ok := p.ReasonFloors[sig.Kind]
		if !ok || sig.Score < floor {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", reasonLabel(sig.Kind), sig.Evidence))
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if escalated {
		return "AI assessment escalation"
	}
	return "General Concern"
}

func reasonLabel(kind SignalKind) string {
	switch kind {
	case SignalToxicity:
		return "Toxic content detected"
	case SignalSentiment:
		return "Hostile sentiment detected"
	case SignalFakeAccount:
		return "Suspicious account activity"
	case SignalImageMisuse:
		return "Potential image misuse"
	default:
		return string(kind)
	}
}
