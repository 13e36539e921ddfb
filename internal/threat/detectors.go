package threat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"crowsnest/pkg/logging"
)

// Detector scores one dimension of a post. Implementations must be safe for
// concurrent use and must not mutate the post.
type Detector interface {
	Kind() SignalKind
	Detect(ctx context.Context, post Post) (Signal, error)
}

// Bank runs a fixed set of detectors against a post concurrently and returns
// their signals in a stable order regardless of completion order.
type Bank struct {
	detectors []Detector
	logger    logging.Logger
}

// NewBank builds the default detector bank: toxicity, sentiment, fake
// account, image misuse.
func NewBank(logger logging.Logger, officialImages []string) *Bank {
	return &Bank{
		detectors: []Detector{
			&ToxicityDetector{},
			&SentimentDetector{},
			&FakeAccountDetector{},
			NewImageMisuseDetector(officialImages),
		},
		logger: logger,
	}
}

// Analyze runs every detector against the post. A detector that errors or
// panics contributes a zero-score signal for its kind instead of failing the
// whole post. Signals come back in registration order.
func (b *Bank) Analyze(ctx context.Context, post Post) []Signal {
	signals := make([]Signal, len(b.detectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, det := range b.detectors {
		i, det := i, det
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					if b.logger != nil {
						b.logger.WithFields(logging.Fields{
							"detector": string(det.Kind()),
							"panic":    fmt.Sprint(r),
						}).Error("Detector panic recovered")
					}
					signals[i] = Signal{Kind: det.Kind(), Score: 0, Evidence: "detector failed"}
				}
			}()

			sig, err := det.Detect(gctx, post)
			if err != nil {
				if b.logger != nil {
					b.logger.WithError(err).WithField("detector", string(det.Kind())).Warn("Detector failed")
				}
				signals[i] = Signal{Kind: det.Kind(), Score: 0, Evidence: "detector failed"}
				return nil
			}
			signals[i] = sig
			return nil
		})
	}
	_ = g.Wait()

	return signals
}

// strongPhrases carry direct threats of violence; any single hit pushes the
// toxicity score into the high band.
var strongPhrases = []string{
	"kill you",
	"i will kill",
	"gonna kill",
	"going to kill",
	"you will die",
	"watch your back",
	"i know where you live",
	"hunt you down",
	"make you pay",
	"you're dead",
	"end your life",
}

var toxicKeywords = []string{
	"hate",
	"die",
	"threat",
	"attack",
	"hurt",
	"destroy",
	"stupid",
	"ugly",
	"worthless",
	"pathetic",
	"disgusting",
	"fraud",
	"fake",
	"expose",
	"stalking",
	"following you",
}

// ToxicityDetector scores hostile and threatening language with a lexical
// heuristic. Deterministic: identical content always yields the same score.
type ToxicityDetector struct{}

func (d *ToxicityDetector) Kind() SignalKind { return SignalToxicity }

func (d *ToxicityDetector) Detect(ctx context.Context, post Post) (Signal, error) {
	content := strings.ToLower(post.Content)

	var strongHits, keywordHits []string
	for _, p := range strongPhrases {
		if strings.Contains(content, p) {
			strongHits = append(strongHits, p)
		}
	}
	for _, k := range toxicKeywords {
		if strings.Contains(content, k) {
			keywordHits = append(keywordHits, k)
		}
	}

	score := 0.05
	switch {
	case len(strongHits) >= 2:
		score = 0.95
	case len(strongHits) == 1:
		score = 0.85 + 0.02*minFloat(float64(len(keywordHits)), 5)
	case len(keywordHits) > 0:
		score = 0.25 + 0.12*float64(len(keywordHits))
	}
	score = clamp01(score)

	evidence := "no toxic language detected"
	if len(strongHits) > 0 {
		evidence = fmt.Sprintf("threatening phrases: %s", strings.Join(strongHits, ", "))
	} else if len(keywordHits) > 0 {
		evidence = fmt.Sprintf("toxic keywords: %s", strings.Join(keywordHits, ", "))
	}

	return Signal{Kind: SignalToxicity, Score: score, Evidence: evidence}, nil
}

var negativeWords = []string{
	"hate", "terrible", "awful", "worst", "horrible", "disgusting",
	"angry", "furious", "sick", "tired", "annoying", "liar", "scam",
	"overrated", "trash", "garbage", "ruined", "disappointed",
}

var positiveWords = []string{
	"love", "great", "amazing", "best", "wonderful", "fantastic",
	"inspiring", "talented", "brilliant", "beautiful", "incredible",
	"congratulations", "proud", "thank",
}

// SentimentDetector scores hostility of tone. Negative word mass raises the
// score, positive word mass offsets it. Neutral text sits near zero.
type SentimentDetector struct{}

func (d *SentimentDetector) Kind() SignalKind { return SignalSentiment }

func (d *SentimentDetector) Detect(ctx context.Context, post Post) (Signal, error) {
	content := strings.ToLower(post.Content)

	var neg, pos int
	for _, w := range negativeWords {
		if strings.Contains(content, w) {
			neg++
		}
	}
	for _, w := range positiveWords {
		if strings.Contains(content, w) {
			pos++
		}
	}

	score := clamp01(0.2*float64(neg) - 0.15*float64(pos))

	evidence := "neutral tone"
	switch {
	case neg > 0 && score > 0:
		evidence = fmt.Sprintf("negative sentiment: %d hostile terms against %d positive", neg, pos)
	case pos > 0:
		evidence = "positive tone"
	}

	return Signal{Kind: SignalSentiment, Score: score, Evidence: evidence}, nil
}

// FakeAccountDetector flags throwaway and bot-like accounts from author
// metadata. Posts without metadata score zero rather than guessing.
type FakeAccountDetector struct{}

func (d *FakeAccountDetector) Kind() SignalKind { return SignalFakeAccount }

func (d *FakeAccountDetector) Detect(ctx context.Context, post Post) (Signal, error) {
	meta := post.AuthorMeta
	if meta == nil {
		return Signal{Kind: SignalFakeAccount, Score: 0, Evidence: "account metadata unavailable"}, nil
	}

	if meta.Verified {
		return Signal{Kind: SignalFakeAccount, Score: 0.05, Evidence: "verified account"}, nil
	}

	score := 0.1
	var reasons []string
	if meta.AccountAgeDays < 7 {
		score += 0.45
		reasons = append(reasons, fmt.Sprintf("account %d days old", meta.AccountAgeDays))
	} else if meta.AccountAgeDays < 30 {
		score += 0.25
		reasons = append(reasons, fmt.Sprintf("account %d days old", meta.AccountAgeDays))
	}
	if meta.FollowerCount < 10 {
		score += 0.35
		reasons = append(reasons, fmt.Sprintf("%d followers", meta.FollowerCount))
	} else if meta.FollowerCount < 50 {
		score += 0.15
		reasons = append(reasons, fmt.Sprintf("%d followers", meta.FollowerCount))
	}

	evidence := "established account"
	if len(reasons) > 0 {
		evidence = "suspicious account: " + strings.Join(reasons, ", ")
	}

	return Signal{Kind: SignalFakeAccount, Score: clamp01(score), Evidence: evidence}, nil
}

// ImageMisuseDetector flags posts whose attached image matches a known
// official image of the protected person, indicating reuse or impersonation.
type ImageMisuseDetector struct {
	officialHashes map[string]struct{}
}

func NewImageMisuseDetector(officialImages []string) *ImageMisuseDetector {
	hashes := make(map[string]struct{}, len(officialImages))
	for _, ref := range officialImages {
		hashes[hashImageRef(ref)] = struct{}{}
	}
	return &ImageMisuseDetector{officialHashes: hashes}
}

func (d *ImageMisuseDetector) Kind() SignalKind { return SignalImageMisuse }

func (d *ImageMisuseDetector) Detect(ctx context.Context, post Post) (Signal, error) {
	if post.ImageRef == "" {
		return Signal{Kind: SignalImageMisuse, Score: 0, Evidence: "no image attached"}, nil
	}
	if _, ok := d.officialHashes[hashImageRef(post.ImageRef)]; ok {
		return Signal{
			Kind:     SignalImageMisuse,
			Score:    0.9,
			Evidence: "image matches known official photo",
		}, nil
	}
	return Signal{Kind: SignalImageMisuse, Score: 0.1, Evidence: "unrecognized image"}, nil
}

func hashImageRef(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
