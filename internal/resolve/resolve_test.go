package resolve

import (
	"testing"

	"github.com/smallbiznis/stocksync/internal/ledger/domain"
)

func TestResolveEqualQuantitiesNeverMove(t *testing.T) {
	policies := []Policy{PolicyRemoteWins, PolicyLocalWins, PolicySourceWins}
	for _, policy := range policies {
		for _, qty := range []int{0, 1, 5, 50, 10000} {
			decision := Resolve(qty, qty, policy, domain.SourceLocal)
			if decision.Winning != qty {
				t.Fatalf("policy %s qty %d: winning = %d", policy, qty, decision.Winning)
			}
			if decision.PushRequired || decision.PullRequired {
				t.Fatalf("policy %s qty %d: expected no push/pull", policy, qty)
			}
		}
	}
}

func TestResolveRemoteWins(t *testing.T) {
	decision := Resolve(10, 4, PolicyRemoteWins, domain.SourceLocal)
	if decision.Winning != 4 {
		t.Fatalf("winning = %d, want 4", decision.Winning)
	}
	if decision.PushRequired {
		t.Fatal("remote_wins must never push")
	}
	if !decision.PullRequired {
		t.Fatal("diverged remote_wins must pull")
	}
}

func TestResolveLocalWins(t *testing.T) {
	decision := Resolve(10, 4, PolicyLocalWins, domain.SourceRemote)
	if decision.Winning != 10 {
		t.Fatalf("winning = %d, want 10", decision.Winning)
	}
	if !decision.PushRequired {
		t.Fatal("diverged local_wins must push")
	}
	if decision.PullRequired {
		t.Fatal("local_wins must never pull")
	}
}

func TestResolveSourceWins(t *testing.T) {
	fromLocal := Resolve(7, 3, PolicySourceWins, domain.SourceLocal)
	if fromLocal.Winning != 7 || !fromLocal.PushRequired || fromLocal.PullRequired {
		t.Fatalf("local-sourced decision = %+v", fromLocal)
	}

	fromRemote := Resolve(7, 3, PolicySourceWins, domain.SourceRemote)
	if fromRemote.Winning != 3 || fromRemote.PushRequired || !fromRemote.PullRequired {
		t.Fatalf("remote-sourced decision = %+v", fromRemote)
	}
}

func TestResolveClampsNegativeQuantities(t *testing.T) {
	decision := Resolve(-3, 2, PolicyRemoteWins, domain.SourceRemote)
	if !decision.Clamped {
		t.Fatal("expected clamp flag")
	}
	if decision.Winning != 2 {
		t.Fatalf("winning = %d, want 2", decision.Winning)
	}

	decision = Resolve(-3, -8, PolicyLocalWins, domain.SourceLocal)
	if decision.Winning != 0 {
		t.Fatalf("winning = %d, want 0", decision.Winning)
	}
	if decision.PushRequired || decision.PullRequired {
		t.Fatal("both sides clamp to 0, nothing should move")
	}
}
