package threat

import (
	"strings"
	"testing"
)

func TestLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  Level
	}{
		{0.0, LevelLow},
		{0.34, LevelLow},
		{0.35, LevelMedium},
		{0.59, LevelMedium},
		{0.6, LevelHigh},
		{0.84, LevelHigh},
		{0.85, LevelCritical},
		{1.0, LevelCritical},
	}
	for _, tc := range cases {
		if got := LevelForScore(tc.score); got != tc.want {
			t.Fatalf("LevelForScore(%.2f) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestClassify_AllZeroSignals(t *testing.T) {
	p := DefaultPolicy()
	signals := []Signal{
		{Kind: SignalToxicity, Score: 0},
		{Kind: SignalSentiment, Score: 0},
		{Kind: SignalFakeAccount, Score: 0},
		{Kind: SignalImageMisuse, Score: 0},
	}
	v := p.Classify(signals, nil)
	if v.Score != 0 {
		t.Fatalf("expected zero score, got %.2f", v.Score)
	}
	if v.Level != LevelLow {
		t.Fatalf("expected low level, got %q", v.Level)
	}
	if v.Reason != "General Concern" {
		t.Fatalf("expected generic reason, got %q", v.Reason)
	}
	if v.AIAnalysis != "" {
		t.Fatalf("expected empty ai_analysis, got %q", v.AIAnalysis)
	}
}

func TestClassify_HighToxicityNoAssessment(t *testing.T) {
	p := DefaultPolicy()
	signals := []Signal{
		{Kind: SignalToxicity, Score: 0.9, Evidence: "threatening phrases: i will kill"},
		{Kind: SignalSentiment, Score: 0.4, Evidence: "negative sentiment"},
		{Kind: SignalFakeAccount, Score: 0.2, Evidence: "established account"},
		{Kind: SignalImageMisuse, Score: 0, Evidence: "no image attached"},
	}
	v := p.Classify(signals, nil)
	if v.Level != LevelMedium && v.Level != LevelHigh {
		t.Fatalf("expected medium or high level for dominant toxicity, got %q (score %.2f)", v.Level, v.Score)
	}
	if !strings.Contains(v.Reason, "Toxic content") {
		t.Fatalf("expected toxicity-led reason, got %q", v.Reason)
	}
	if !strings.Contains(v.Reason, "i will kill") {
		t.Fatalf("expected reason to carry evidence, got %q", v.Reason)
	}
	if v.AIAnalysis != "" {
		t.Fatalf("expected empty ai_analysis without assessment, got %q", v.AIAnalysis)
	}
}

func TestClassify_AssessmentEscalates(t *testing.T) {
	p := DefaultPolicy()
	signals := []Signal{
		{Kind: SignalToxicity, Score: 0.1},
		{Kind: SignalSentiment, Score: 0.1},
	}
	v := p.Classify(signals, &Assessment{
		Severity:   0.9,
		Confidence: 0.8,
		Narrative:  "Coded threat referencing the subject's home address",
	})
	if v.Score != 0.9 {
		t.Fatalf("expected assessment severity to take over, got %.2f", v.Score)
	}
	if v.Level != LevelCritical {
		t.Fatalf("expected critical level, got %q", v.Level)
	}
	if v.Reason != "AI assessment escalation" {
		t.Fatalf("unexpected reason: %q", v.Reason)
	}
	if v.AIAnalysis == "" {
		t.Fatal("expected narrative to be carried into the verdict")
	}
}

func TestClassify_ReasonJoinsAllTriggeringSignals(t *testing.T) {
	p := DefaultPolicy()
	signals := []Signal{
		{Kind: SignalToxicity, Score: 0.9, Evidence: "threatening phrases: kill you"},
		{Kind: SignalSentiment, Score: 0.1, Evidence: "neutral tone"},
		{Kind: SignalFakeAccount, Score: 0.8, Evidence: "suspicious account: 2 days old, 3 followers"},
	}
	v := p.Classify(signals, nil)
	if !strings.Contains(v.Reason, "kill you") {
		t.Fatalf("reason missing toxicity evidence: %q", v.Reason)
	}
	if !strings.Contains(v.Reason, "3 followers") {
		t.Fatalf("reason missing fake-account evidence: %q", v.Reason)
	}
	if strings.Contains(v.Reason, "neutral tone") {
		t.Fatalf("reason includes evidence of a signal below its floor: %q", v.Reason)
	}
	want := "Toxic content detected: threatening phrases: kill you, Suspicious account activity: suspicious account: 2 days old, 3 followers"
	if v.Reason != want {
		t.Fatalf("reason = %q, want %q", v.Reason, want)
	}
}

func TestClassify_TriggeredEvidenceSurvivesEscalation(t *testing.T) {
	p := DefaultPolicy()
	signals := []Signal{
		{Kind: SignalToxicity, Score: 0.75, Evidence: "toxic keywords: hate, destroy"},
	}
	v := p.Classify(signals, &Assessment{Severity: 0.95, Confidence: 0.9, Narrative: "coordinated campaign"})
	if v.Score != 0.95 {
		t.Fatalf("expected escalated score 0.95, got %.2f", v.Score)
	}
	if v.Reason == "AI assessment escalation" {
		t.Fatalf("escalation note must not replace triggered detector evidence: %q", v.Reason)
	}
	if !strings.Contains(v.Reason, "toxic keywords: hate, destroy") {
		t.Fatalf("reason missing triggered toxicity evidence: %q", v.Reason)
	}
}

func TestClassify_AssessmentNeverSuppresses(t *testing.T) {
	p := DefaultPolicy()
	signals := []Signal{
		{Kind: SignalToxicity, Score: 0.95, Evidence: "threatening phrases: kill you"},
	}
	withLowSeverity := p.Classify(signals, &Assessment{Severity: 0.1, Confidence: 0.9, Narrative: "likely sarcasm"})
	without := p.Classify(signals, nil)
	if withLowSeverity.Score < without.Score {
		t.Fatalf("assessment lowered the score: %.2f < %.2f", withLowSeverity.Score, without.Score)
	}
}

func TestClassify_LowConfidenceAssessmentIgnoredForScore(t *testing.T) {
	p := DefaultPolicy()
	signals := []Signal{{Kind: SignalToxicity, Score: 0.1}}
	v := p.Classify(signals, &Assessment{Severity: 0.95, Confidence: 0.2, Narrative: "unsure"})
	if v.Score >= 0.9 {
		t.Fatalf("low-confidence severity should not drive the score, got %.2f", v.Score)
	}
	if v.AIAnalysis != "unsure" {
		t.Fatalf("narrative should still surface, got %q", v.AIAnalysis)
	}
}

func TestClassify_Monotonic(t *testing.T) {
	p := DefaultPolicy()
	prev := -1.0
	for s := 0.0; s <= 1.0; s += 0.05 {
		v := p.Classify([]Signal{
			{Kind: SignalToxicity, Score: s},
			{Kind: SignalSentiment, Score: s},
			{Kind: SignalFakeAccount, Score: s},
			{Kind: SignalImageMisuse, Score: s},
		}, nil)
		if v.Score < prev {
			t.Fatalf("score not monotonic at input %.2f: %.4f < %.4f", s, v.Score, prev)
		}
		if v.Score < 0 || v.Score > 1 {
			t.Fatalf("score out of range: %.4f", v.Score)
		}
		prev = v.Score
	}
}

func TestClassify_MissingSignalsNormalized(t *testing.T) {
	p := DefaultPolicy()
	// Only toxicity present at max: normalization means the fused score is
	// still 1.0, not diluted by absent detectors.
	v := p.Classify([]Signal{{Kind: SignalToxicity, Score: 1.0}}, nil)
	if v.Score != 1.0 {
		t.Fatalf("expected normalized score 1.0, got %.4f", v.Score)
	}
}

func TestClassify_UnknownSignalKindIgnored(t *testing.T) {
	p := DefaultPolicy()
	v := p.Classify([]Signal{
		{Kind: SignalKind("experimental"), Score: 1.0},
		{Kind: SignalToxicity, Score: 0.0},
	}, nil)
	if v.Score != 0 {
		t.Fatalf("unknown signal kinds must not affect the score, got %.4f", v.Score)
	}
}
