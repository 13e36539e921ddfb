package threat

import "time"

// Platform identifies the social network a post originated from.
type Platform string

const (
	PlatformTwitter   Platform = "Twitter"
	PlatformFacebook  Platform = "Facebook"
	PlatformInstagram Platform = "Instagram"
)

// AllPlatforms lists every platform the pipeline knows how to scan.
func AllPlatforms() []Platform {
	return []Platform{PlatformTwitter, PlatformFacebook, PlatformInstagram}
}

// AuthorMetadata carries account signals consumed by the fake-account detector.
type AuthorMetadata struct {
	AccountAgeDays int  `json:"account_age_days"`
	FollowerCount  int  `json:"follower_count"`
	Verified       bool `json:"verified"`
}

// Post is a raw social media post as delivered by a post source. Immutable
// once read.
type Post struct {
	Platform   Platform        `json:"platform"`
	Author     string          `json:"author"`
	Content    string          `json:"content"`
	URL        string          `json:"url"`
	PostedAt   time.Time       `json:"posted_at"`
	AuthorMeta *AuthorMetadata `json:"author_metadata,omitempty"`
	ImageRef   string          `json:"image_ref,omitempty"`
}

// SignalKind names one detector in the bank.
type SignalKind string

const (
	SignalToxicity    SignalKind = "toxicity"
	SignalSentiment   SignalKind = "sentiment"
	SignalFakeAccount SignalKind = "fake_account"
	SignalImageMisuse SignalKind = "image_misuse"
)

// Signal is a single detector's contribution: a score in [0,1] where higher
// means more concerning, plus a short human-readable evidence string.
type Signal struct {
	Kind     SignalKind `json:"kind"`
	Score    float64    `json:"score"`
	Evidence string     `json:"evidence"`
}

// Assessment is the semantic assessor's qualitative read of a post. A nil
// *Assessment means the assessor was unavailable for that post.
type Assessment struct {
	Severity   float64 `json:"severity"`
	Narrative  string  `json:"narrative"`
	Confidence float64 `json:"confidence"`
}

// Level is the discrete threat classification derived from the fused score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Verdict is the fused output of the detector bank and semantic assessor.
type Verdict struct {
	Score      float64 `json:"score"`
	Level      Level   `json:"level"`
	Reason     string  `json:"reason"`
	AIAnalysis string  `json:"ai_analysis"`
}

// Alert is a persisted threat record. Timestamp is detection time, not the
// post's publication time.
type Alert struct {
	ID          string    `json:"id"`
	Platform    Platform  `json:"platform"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Timestamp   time.Time `json:"timestamp"`
	Score       float64   `json:"score"`
	ThreatLevel Level     `json:"threat_level"`
	Reason      string    `json:"reason"`
	AIAnalysis  string    `json:"ai_analysis"`
}
