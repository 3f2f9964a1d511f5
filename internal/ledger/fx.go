package ledger

import (
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	"github.com/smallbiznis/stocksync/internal/ledger/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger",
	fx.Provide(
		fx.Annotate(repository.New, fx.As(new(ledgerdomain.Repository))),
	),
)
