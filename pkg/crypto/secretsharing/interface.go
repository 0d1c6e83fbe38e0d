// Package secretsharing combines share encoding with information checking
// into a robust secret sharing scheme.
package secretsharing

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Davincible/rss/pkg/crypto/infocheck"
	"github.com/Davincible/rss/pkg/crypto/mac"
	"github.com/Davincible/rss/pkg/crypto/random"
	"github.com/Davincible/rss/pkg/crypto/shamir"
	"github.com/Davincible/rss/pkg/metrics"
	"github.com/Davincible/rss/pkg/share"
)

// ErrNotEnoughValid is returned when fewer than threshold shares survive
// information checking.
var ErrNotEnoughValid = errors.New("not enough valid shares")

// Config contains the parameters of a robust sharing.
type Config struct {
	Parts        int    `json:"parts"`
	Threshold    int    `json:"threshold"`
	MACAlgorithm string `json:"mac_algorithm"`
}

// Validate checks the sharing parameters and the MAC algorithm name.
func (c Config) Validate() error {
	sc := shamir.Config{Parts: c.Parts, Threshold: c.Threshold}
	if err := sc.Validate(); err != nil {
		return err
	}
	if _, err := mac.New(c.MACAlgorithm); err != nil {
		return err
	}
	return nil
}

// RobustSharer splits secrets into tagged shares and recombines them while
// tolerating corrupted shares.
type RobustSharer struct {
	config Config
	ic     *infocheck.RabinBenOr
	logger *slog.Logger
}

// Option configures a RobustSharer.
type Option func(*options)

type options struct {
	rng     random.Source
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WithRandomSource overrides the system CSPRNG used for MAC keys.
func WithRandomSource(src random.Source) Option {
	return func(o *options) { o.rng = src }
}

// WithLogger sets the logger for the sharer and its checker.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records information-checking counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewRobustSharer validates config and builds the checker. The checker's
// acceptance threshold equals the reconstruction threshold.
func NewRobustSharer(config Config, opts ...Option) (*RobustSharer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{
		rng:    random.NewSystemSource(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	helper, err := mac.New(config.MACAlgorithm)
	if err != nil {
		return nil, err
	}

	ic, err := infocheck.NewRabinBenOr(config.Threshold, helper, o.rng,
		infocheck.WithLogger(o.logger),
		infocheck.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}

	return &RobustSharer{config: config, ic: ic, logger: o.logger}, nil
}

// Config returns the sharer's parameters.
func (r *RobustSharer) Config() Config { return r.config }

// Split produces Parts tagged shares of secret.
func (r *RobustSharer) Split(secret []byte) ([]*share.Share, error) {
	shares, err := shamir.Split(secret, shamir.Config{Parts: r.config.Parts, Threshold: r.config.Threshold})
	if err != nil {
		return nil, err
	}

	if err := r.ic.CreateTags(shares); err != nil {
		return nil, fmt.Errorf("failed to create tags: %w", err)
	}

	r.logger.Info("split secret", "parts", len(shares), "threshold", r.config.Threshold, "scheme", r.ic.String())
	return shares, nil
}

// Check partitions shares into accepted and rejected ones, both in input order.
func (r *RobustSharer) Check(shares []*share.Share) (valid, rejected []*share.Share, err error) {
	valid, err = r.ic.CheckShares(shares)
	if err != nil {
		return nil, nil, err
	}

	accepted := make(map[byte]bool, len(valid))
	for _, s := range valid {
		accepted[s.ID] = true
	}
	for _, s := range shares {
		if !accepted[s.ID] {
			rejected = append(rejected, s)
		}
	}
	return valid, rejected, nil
}

// AcceptCounts reports how many peers accept each share.
func (r *RobustSharer) AcceptCounts(shares []*share.Share) (map[byte]int, error) {
	return r.ic.AcceptCounts(shares)
}

// Result is the outcome of a recovery.
type Result struct {
	Secret   []byte
	Valid    []*share.Share
	Rejected []*share.Share
}

// Recover drops shares that fail information checking and reconstructs the
// secret from the survivors.
func (r *RobustSharer) Recover(shares []*share.Share) (*Result, error) {
	valid, rejected, err := r.Check(shares)
	if err != nil {
		return nil, err
	}

	if len(rejected) > 0 {
		r.logger.Warn("dropped shares failing information checking", "rejected", share.IDs(rejected))
	}

	if len(valid) < r.config.Threshold {
		return nil, fmt.Errorf("%w: %d of %d accepted, need %d", ErrNotEnoughValid, len(valid), len(shares), r.config.Threshold)
	}

	secret, err := shamir.Combine(valid, r.config.Threshold)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("recovered secret", "accepted", share.IDs(valid), "rejected", share.IDs(rejected))
	return &Result{Secret: secret, Valid: valid, Rejected: rejected}, nil
}

// Combine is Recover returning only the secret.
func (r *RobustSharer) Combine(shares []*share.Share) ([]byte, error) {
	res, err := r.Recover(shares)
	if err != nil {
		return nil, err
	}
	return res.Secret, nil
}
