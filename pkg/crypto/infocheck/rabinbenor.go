package infocheck

import (
	"fmt"
	"log/slog"

	"github.com/Davincible/rss/pkg/crypto/mac"
	"github.com/Davincible/rss/pkg/crypto/random"
	"github.com/Davincible/rss/pkg/metrics"
	"github.com/Davincible/rss/pkg/secure"
	"github.com/Davincible/rss/pkg/share"
)

// RabinBenOr implements Rabin–Ben-Or robust secret sharing: every ordered
// pair of shares (i, j) gets a fresh key K_ij, share i stores MAC(K_ij, y_i)
// under j's id and share j stores K_ij under i's id. A share is valid when at
// least k shares, itself included, accept its tag.
type RabinBenOr struct {
	k       int
	mac     mac.Helper
	rng     random.Source
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var _ InformationChecking = (*RabinBenOr)(nil)

// Option configures a RabinBenOr instance.
type Option func(*RabinBenOr)

// WithLogger routes debug output to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *RabinBenOr) { r.logger = logger }
}

// WithMetrics records tag creation and check outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *RabinBenOr) { r.metrics = m }
}

// NewRabinBenOr returns a checker that accepts a share once k peers approve it.
func NewRabinBenOr(k int, helper mac.Helper, rng random.Source, opts ...Option) (*RabinBenOr, error) {
	if k < 1 {
		return nil, fmt.Errorf("threshold must be at least 1, got %d", k)
	}
	if helper == nil {
		return nil, fmt.Errorf("mac helper is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	r := &RabinBenOr{
		k:      k,
		mac:    helper,
		rng:    rng,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Threshold returns k.
func (r *RabinBenOr) Threshold() int { return r.k }

// CreateTags draws a fresh key for every ordered pair, including each
// share with itself, and stores tag and key on the two sides. Previous
// information-checking material on the shares is replaced. The shares are
// only modified once every pair has been tagged, so on error they keep
// their previous material.
func (r *RabinBenOr) CreateTags(shares []*share.Share) error {
	if err := share.CheckUniqueIDs(shares); err != nil {
		return err
	}

	macs := make(map[byte]map[byte][]byte, len(shares))
	keys := make(map[byte]map[byte][]byte, len(shares))
	for _, s := range shares {
		macs[s.ID] = make(map[byte][]byte, len(shares))
		keys[s.ID] = make(map[byte][]byte, len(shares))
	}

	for _, s1 := range shares {
		for _, s2 := range shares {
			key := make([]byte, r.mac.KeySize())
			if err := r.rng.FillBytes(key); err != nil {
				wipe(keys)
				return fmt.Errorf("%w: drawing key for pair (%d,%d): %v", ErrFatal, s1.ID, s2.ID, err)
			}

			tag, err := r.mac.ComputeMAC(s1.YValues, key)
			if err != nil {
				secure.Zero(key)
				wipe(keys)
				return fmt.Errorf("%w: %s rejected its own key for pair (%d,%d): %v", ErrFatal, r.mac, s1.ID, s2.ID, err)
			}

			macs[s1.ID][s2.ID] = tag
			keys[s2.ID][s1.ID] = key
		}
	}

	for _, s := range shares {
		s.Macs = macs[s.ID]
		s.MacKeys = keys[s.ID]
		s.ICType = share.ICRabinBenOr
	}

	r.metrics.RecordTags(len(shares) * len(shares))
	r.logger.Debug("created information checking tags",
		"scheme", r.String(),
		"shares", len(shares),
		"pairs", len(shares)*len(shares))

	return nil
}

// CheckShares counts, for every share, the peers whose key verifies its tag
// and keeps the shares with at least k accepts. A missing tag or key counts
// as a rejection.
func (r *RabinBenOr) CheckShares(shares []*share.Share) ([]*share.Share, error) {
	if err := share.CheckUniqueIDs(shares); err != nil {
		return nil, err
	}

	valid := make([]*share.Share, 0, len(shares))
	for _, s1 := range shares {
		accepts := r.acceptCount(s1, shares)
		ok := accepts >= r.k

		r.metrics.RecordCheck(ok)
		r.metrics.RecordFailedPairs(len(shares) - accepts)
		r.logger.Debug("checked share",
			"id", s1.ID,
			"accepts", accepts,
			"threshold", r.k,
			"valid", ok)

		if ok {
			valid = append(valid, s1)
		}
	}

	return valid, nil
}

// AcceptCounts reports the accept count of every share keyed by id. It is
// meant for diagnostics; CheckShares applies the threshold.
func (r *RabinBenOr) AcceptCounts(shares []*share.Share) (map[byte]int, error) {
	if err := share.CheckUniqueIDs(shares); err != nil {
		return nil, err
	}

	counts := make(map[byte]int, len(shares))
	for _, s := range shares {
		counts[s.ID] = r.acceptCount(s, shares)
	}
	return counts, nil
}

func (r *RabinBenOr) acceptCount(candidate *share.Share, peers []*share.Share) int {
	accepts := 0
	for _, peer := range peers {
		tag, hasTag := candidate.Macs[peer.ID]
		key, hasKey := peer.MacKeys[candidate.ID]
		if !hasTag || !hasKey {
			continue
		}
		if r.mac.VerifyMAC(candidate.YValues, tag, key) {
			accepts++
		}
	}
	return accepts
}

func (r *RabinBenOr) String() string {
	return fmt.Sprintf("RabinBenOr(k=%d, %s)", r.k, r.mac)
}

// wipe zeroes keys drawn for a tagging run that did not complete.
func wipe(keys map[byte]map[byte][]byte) {
	for _, m := range keys {
		secure.ZeroAll(m)
	}
}
