// Package resolve decides which side of a diverged stock quantity wins.
package resolve

import "github.com/smallbiznis/stocksync/internal/ledger/domain"

// Policy is the configured conflict resolution rule.
type Policy string

const (
	// PolicyRemoteWins takes the remote quantity on divergence.
	PolicyRemoteWins Policy = "remote_wins"
	// PolicyLocalWins takes the local quantity on divergence.
	PolicyLocalWins Policy = "local_wins"
	// PolicySourceWins lets the ledger that triggered the sync win.
	PolicySourceWins Policy = "source_wins"
)

// Decision is the outcome of one conflict resolution.
type Decision struct {
	Winning      int
	PushRequired bool
	PullRequired bool
	Clamped      bool
}

// Resolve is total over all integer inputs. Negative quantities are
// clamped to zero; callers log the clamp as a warning. Equal quantities
// never require a push or a pull regardless of policy.
func Resolve(local, remote int, policy Policy, source domain.ChangeSource) Decision {
	clamped := local < 0 || remote < 0
	if local < 0 {
		local = 0
	}
	if remote < 0 {
		remote = 0
	}

	if local == remote {
		return Decision{Winning: local, Clamped: clamped}
	}

	switch policy {
	case PolicyLocalWins:
		return Decision{Winning: local, PushRequired: true, Clamped: clamped}
	case PolicySourceWins:
		if source == domain.SourceLocal {
			return Decision{Winning: local, PushRequired: true, Clamped: clamped}
		}
		return Decision{Winning: remote, PullRequired: true, Clamped: clamped}
	default: // PolicyRemoteWins
		return Decision{Winning: remote, PullRequired: true, Clamped: clamped}
	}
}
