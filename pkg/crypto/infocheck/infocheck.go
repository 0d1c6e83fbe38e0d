// Package infocheck implements information checking for robust secret
// sharing: shares are annotated with pairwise MACs when they are created and
// filtered down to the mutually approved ones before reconstruction.
package infocheck

import (
	"errors"

	"github.com/Davincible/rss/pkg/share"
)

// ErrFatal marks failures of the random source or the MAC primitive that
// abort tag creation.
var ErrFatal = errors.New("infocheck: fatal")

// InformationChecking annotates and filters share sets.
type InformationChecking interface {
	// CreateTags attaches authentication material to every share in place.
	CreateTags(shares []*share.Share) error
	// CheckShares returns the shares that pass verification, in input order.
	// Corrupted shares are dropped, not reported as errors.
	CheckShares(shares []*share.Share) ([]*share.Share, error)
	String() string
}
