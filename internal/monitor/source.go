package monitor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"crowsnest/internal/threat"
)

// PostSource fetches the latest batch of posts mentioning the protected
// person on one platform.
type PostSource interface {
	Platform() threat.Platform
	Fetch(ctx context.Context) ([]threat.Post, error)
}

type mockSample struct {
	author   string
	content  string
	meta     *threat.AuthorMetadata
	imageRef string
}

// MockFeed simulates a platform feed for development and demos. Each Fetch
// rolls the platform's discovery probability and, on a hit, returns one
// random sample post with a unique URL. A seeded feed is deterministic.
type MockFeed struct {
	platform    threat.Platform
	probability float64
	samples     []mockSample

	mu   sync.Mutex
	rng  *rand.Rand
	seq  int
	vip  string
	base string
}

// NewMockFeeds builds one mock feed per platform, all sharing the protected
// person's name. Seed 0 means seed from the clock.
func NewMockFeeds(vipName string, seed int64) []PostSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	feeds := []PostSource{
		NewMockFeed(threat.PlatformTwitter, vipName, 0.3, seed),
		NewMockFeed(threat.PlatformFacebook, vipName, 0.2, seed+1),
		NewMockFeed(threat.PlatformInstagram, vipName, 0.25, seed+2),
	}
	return feeds
}

func NewMockFeed(platform threat.Platform, vipName string, probability float64, seed int64) *MockFeed {
	return &MockFeed{
		platform:    platform,
		probability: probability,
		samples:     samplesFor(platform, vipName),
		rng:         rand.New(rand.NewSource(seed)),
		vip:         vipName,
		base:        baseURL(platform),
	}
}

func (f *MockFeed) Platform() threat.Platform { return f.platform }

func (f *MockFeed) Fetch(ctx context.Context) ([]threat.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rng.Float64() >= f.probability {
		return nil, nil
	}

	sample := f.samples[f.rng.Intn(len(f.samples))]
	f.seq++

	post := threat.Post{
		Platform:   f.platform,
		Author:     sample.author,
		Content:    sample.content,
		URL:        fmt.Sprintf("%s/%d%06d", f.base, time.Now().Unix(), f.seq),
		PostedAt:   time.Now().UTC(),
		AuthorMeta: sample.meta,
		ImageRef:   sample.imageRef,
	}
	return []threat.Post{post}, nil
}

func baseURL(platform threat.Platform) string {
	switch platform {
	case threat.PlatformTwitter:
		return "https://twitter.com/status"
	case threat.PlatformFacebook:
		return "https://facebook.com/posts"
	case threat.PlatformInstagram:
		return "https://instagram.com/p"
	default:
		return "https://example.com/posts"
	}
}

func samplesFor(platform threat.Platform, vip string) []mockSample {
	botMeta := &threat.AuthorMetadata{AccountAgeDays: 2, FollowerCount: 3}
	freshMeta := &threat.AuthorMetadata{AccountAgeDays: 12, FollowerCount: 40}
	fanMeta := &threat.AuthorMetadata{AccountAgeDays: 1400, FollowerCount: 2300, Verified: false}

	common := []mockSample{
		{
			author:  "@anonymous_user_123",
			content: fmt.Sprintf("I hate %s so much, they ruined everything. Someone should teach them a lesson", vip),
			meta:    freshMeta,
		},
		{
			author:  "@真实粉丝2024",
			content: fmt.Sprintf("%s is coming to our city next month!!! So excited", vip),
			meta:    fanMeta,
		},
		{
			author:  "@watcher_in_shadows",
			content: fmt.Sprintf("I know where %s lives. Watch your back", vip),
			meta:    botMeta,
		},
		{
			author:  "@celebrity_news_daily",
			content: fmt.Sprintf("Breaking: %s spotted at charity gala last night, fans love the new look", vip),
			meta:    fanMeta,
		},
		{
			author:  "@truth_exposer_99",
			content: fmt.Sprintf("%s is a fraud and a fake. Time to expose everything about them", vip),
			meta:    botMeta,
		},
	}

	switch platform {
	case threat.PlatformTwitter:
		return append(common, mockSample{
			author:  "@vip_updates_bot",
			content: fmt.Sprintf("RT if you think %s is overrated garbage", vip),
			meta:    botMeta,
		})
	case threat.PlatformFacebook:
		return append(common, mockSample{
			author:  "Fan Club Official",
			content: fmt.Sprintf("Join our %s appreciation group, 10k members strong!", vip),
			meta:    fanMeta,
		})
	case threat.PlatformInstagram:
		return append(common, mockSample{
			author:   "@official.lookalike",
			content:  fmt.Sprintf("New exclusive photos of %s, DM for more", vip),
			meta:     botMeta,
			imageRef: "official-portrait-2024.jpg",
		})
	default:
		return common
	}
}
