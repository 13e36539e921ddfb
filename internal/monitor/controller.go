package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"crowsnest/internal/alerts"
	"crowsnest/internal/threat"
	"crowsnest/pkg/logging"
)

const (
	defaultScanInterval   = 30 * time.Second
	defaultAlertThreshold = 0.30
)

// Status is a point-in-time snapshot of the monitoring loop.
type Status struct {
	IsRunning          bool       `json:"is_running"`
	PlatformsMonitored []string   `json:"platforms_monitored"`
	AlertsCount        int        `json:"alerts_count"`
	LastCheck          *time.Time `json:"last_check"`
}

type ControllerConfig struct {
	Sources   []PostSource
	Bank      *threat.Bank
	Assessor  threat.Assessor
	Policy    threat.Policy
	Store     alerts.Store
	Publisher *alerts.Publisher
	Metrics   *PipelineMetrics
	Logger    logging.Logger
	Interval  time.Duration
	Threshold float64
}

// Controller owns the periodic scan loop: fetch posts from every source,
// run the detector bank and semantic assessor, fuse, and persist alerts that
// clear the threshold.
type Controller struct {
	sources   []PostSource
	bank      *threat.Bank
	assessor  threat.Assessor
	policy    threat.Policy
	store     alerts.Store
	publisher *alerts.Publisher
	metrics   *PipelineMetrics
	logger    logging.Logger
	interval  time.Duration
	threshold float64

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	lastCheck *time.Time
}

func NewController(cfg ControllerConfig) *Controller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultScanInterval
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = defaultAlertThreshold
	}
	return &Controller{
		sources:   cfg.Sources,
		bank:      cfg.Bank,
		assessor:  cfg.Assessor,
		policy:    cfg.Policy,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		interval:  interval,
		threshold: threshold,
	}
}

// Start launches the scan loop. Returns false if it was already running.
// The first cycle runs immediately, then every interval.
func (c *Controller) Start() bool {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)

	c.logger.WithField("interval", c.interval.String()).Info("Monitoring started")
	return true
}

// Stop halts the loop. An in-flight cycle finishes on its own; only the next
// tick is cancelled. Returns false if monitoring was not running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return false
	}
	c.running = false
	c.cancel()
	c.cancel = nil

	c.logger.Info("Monitoring stopped")
	return true
}

// Status reports the loop state and the persisted alert count.
func (c *Controller) Status(ctx context.Context) Status {
	c.mu.Lock()
	running := c.running
	lastCheck := c.lastCheck
	c.mu.Unlock()

	count := 0
	if c.store != nil {
		if n, err := c.store.Count(ctx); err == nil {
			count = n
		} else {
			c.logger.WithError(err).Warn("Failed to count alerts for status")
		}
	}

	platforms := make([]string, 0, len(c.sources))
	for _, src := range c.sources {
		platforms = append(platforms, string(src.Platform()))
	}

	return Status{
		IsRunning:          running,
		PlatformsMonitored: platforms,
		AlertsCount:        count,
		LastCheck:          lastCheck,
	}
}

func (c *Controller) run(ctx context.Context) {
	// The cycle itself runs on a background context so cancellation stops
	// the loop without aborting analysis already underway.
	c.runCycle(context.Background())

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCycle(context.Background())
		}
	}
}

func (c *Controller) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("panic", fmt.Sprint(r)).Error("Scan cycle panic")
		}
	}()

	for _, src := range c.sources {
		posts, err := src.Fetch(ctx)
		if err != nil {
			c.metrics.IncSourceFailure(string(src.Platform()))
			c.logger.WithError(err).WithField("platform", string(src.Platform())).Warn("Post source fetch failed")
			continue
		}
		for _, post := range posts {
			c.processPost(ctx, post)
		}
	}

	now := time.Now().UTC()
	c.mu.Lock()
	c.lastCheck = &now
	c.mu.Unlock()

	c.metrics.IncScanCycle()
}

// processPost runs one post through the full pipeline. Posts already alerted
// on (same platform and URL) are skipped before any analysis.
func (c *Controller) processPost(ctx context.Context, post threat.Post) {
	exists, err := c.store.ExistsForPost(ctx, post.Platform, post.URL)
	if err != nil {
		c.logger.WithError(err).Warn("Dedup check failed, skipping post")
		return
	}
	if exists {
		return
	}

	c.metrics.IncPostAnalyzed(string(post.Platform))

	signals := c.bank.Analyze(ctx, post)

	var assessment *threat.Assessment
	if c.assessor != nil {
		assessment, err = c.assessor.Assess(ctx, post, signals)
		if err != nil {
			c.metrics.IncAssessorFailure()
			c.logger.WithError(err).WithField("platform", string(post.Platform)).Debug("Assessor unavailable for post")
			assessment = nil
		}
	}

	verdict := c.policy.Classify(signals, assessment)
	if verdict.Score < c.threshold {
		return
	}

	c.persist(ctx, post, verdict)
}

func (c *Controller) persist(ctx context.Context, post threat.Post, verdict threat.Verdict) {
	alert := threat.Alert{
		ID:          uuid.New().String(),
		Platform:    post.Platform,
		Author:      post.Author,
		Content:     post.Content,
		URL:         post.URL,
		Timestamp:   time.Now().UTC(),
		Score:       verdict.Score,
		ThreatLevel: verdict.Level,
		Reason:      verdict.Reason,
		AIAnalysis:  verdict.AIAnalysis,
	}

	saved, err := c.store.Insert(ctx, alert)
	if err != nil {
		c.logger.WithError(err).WithFields(logging.Fields{
			"platform": string(post.Platform),
			"url":      post.URL,
		}).Error("Failed to persist alert")
		return
	}

	c.metrics.IncAlertEmitted(string(saved.ThreatLevel))
	c.publisher.Publish(ctx, saved)

	c.logger.WithFields(logging.Fields{
		"alert_id":     saved.ID,
		"platform":     string(saved.Platform),
		"threat_level": string(saved.ThreatLevel),
		"score":        saved.Score,
	}).Info("Threat alert raised")
}

// GenerateMockAlert pushes a fabricated threatening post through the full
// pipeline and persists the result regardless of threshold. Dashboard
// smoke-test hook.
func (c *Controller) GenerateMockAlert(ctx context.Context, vipName string) (threat.Alert, error) {
	post := threat.Post{
		Platform: threat.PlatformTwitter,
		Author:   "@test_threat_account",
		Content:  fmt.Sprintf("I will kill you %s, watch your back. I know where you live", vipName),
		URL:      fmt.Sprintf("https://twitter.com/status/mock-%s", uuid.New().String()),
		PostedAt: time.Now().UTC(),
		AuthorMeta: &threat.AuthorMetadata{
			AccountAgeDays: 1,
			FollowerCount:  0,
		},
	}

	signals := c.bank.Analyze(ctx, post)

	var assessment *threat.Assessment
	if c.assessor != nil {
		if a, err := c.assessor.Assess(ctx, post, signals); err == nil {
			assessment = a
		} else {
			c.metrics.IncAssessorFailure()
		}
	}

	verdict := c.policy.Classify(signals, assessment)

	alert := threat.Alert{
		ID:          uuid.New().String(),
		Platform:    post.Platform,
		Author:      post.Author,
		Content:     post.Content,
		URL:         post.URL,
		Timestamp:   time.Now().UTC(),
		Score:       verdict.Score,
		ThreatLevel: verdict.Level,
		Reason:      verdict.Reason,
		AIAnalysis:  verdict.AIAnalysis,
	}

	saved, err := c.store.Insert(ctx, alert)
	if err != nil {
		return threat.Alert{}, fmt.Errorf("persist mock alert: %w", err)
	}

	c.metrics.IncAlertEmitted(string(saved.ThreatLevel))
	c.publisher.Publish(ctx, saved)
	return saved, nil
}
