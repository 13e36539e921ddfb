package alerts

import (
	"context"
	"sort"
	"sync"
	"time"

	"crowsnest/internal/threat"
)

// MemoryStore is an in-process Store used when no database is configured and
// in tests. Alerts do not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	alerts []threat.Alert
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(ctx context.Context, alert threat.Alert) (threat.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return alert, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]threat.Alert, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]threat.Alert, len(s.alerts))
	copy(out, s.alerts)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListSince(ctx context.Context, since time.Time) ([]threat.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []threat.Alert
	for _, a := range s.alerts {
		if !a.Timestamp.Before(since) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts), nil
}

func (s *MemoryStore) ExistsForPost(ctx context.Context, platform threat.Platform, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alerts {
		if a.Platform == platform && a.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.alerts)
	s.alerts = nil
	return n, nil
}
