package monitor

import (
	"context"
	"strings"
	"testing"

	"crowsnest/internal/threat"
)

func TestMockFeed_Deterministic(t *testing.T) {
	a := NewMockFeed(threat.PlatformTwitter, "Jane Celebrity", 0.3, 42)
	b := NewMockFeed(threat.PlatformTwitter, "Jane Celebrity", 0.3, 42)

	for i := 0; i < 50; i++ {
		pa, _ := a.Fetch(context.Background())
		pb, _ := b.Fetch(context.Background())
		if len(pa) != len(pb) {
			t.Fatalf("iteration %d: feeds diverged on hit/miss", i)
		}
		if len(pa) == 1 && pa[0].Content != pb[0].Content {
			t.Fatalf("iteration %d: feeds diverged on sample", i)
		}
	}
}

func TestMockFeed_PostShape(t *testing.T) {
	feed := NewMockFeed(threat.PlatformInstagram, "Jane Celebrity", 1.0, 7)

	seen := map[string]bool{}
	for i := 0; i < 30; i++ {
		posts, err := feed.Fetch(context.Background())
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(posts) != 1 {
			t.Fatalf("probability 1.0 should always yield a post, got %d", len(posts))
		}
		p := posts[0]
		if p.Platform != threat.PlatformInstagram {
			t.Fatalf("wrong platform: %s", p.Platform)
		}
		if !strings.Contains(p.Content, "Jane Celebrity") {
			t.Fatalf("content does not mention the protected person: %q", p.Content)
		}
		if seen[p.URL] {
			t.Fatalf("duplicate URL emitted: %s", p.URL)
		}
		seen[p.URL] = true
	}
}

func TestMockFeed_ZeroProbabilityNeverFires(t *testing.T) {
	feed := NewMockFeed(threat.PlatformFacebook, "Jane Celebrity", 0.0, 1)
	for i := 0; i < 20; i++ {
		posts, err := feed.Fetch(context.Background())
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(posts) != 0 {
			t.Fatal("probability 0.0 must never yield posts")
		}
	}
}

func TestNewMockFeeds_CoversAllPlatforms(t *testing.T) {
	feeds := NewMockFeeds("Jane Celebrity", 99)
	if len(feeds) != len(threat.AllPlatforms()) {
		t.Fatalf("expected %d feeds, got %d", len(threat.AllPlatforms()), len(feeds))
	}
	got := map[threat.Platform]bool{}
	for _, f := range feeds {
		got[f.Platform()] = true
	}
	for _, p := range threat.AllPlatforms() {
		if !got[p] {
			t.Fatalf("missing feed for platform %s", p)
		}
	}
}
