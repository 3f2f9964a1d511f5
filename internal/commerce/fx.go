package commerce

import (
	commercedomain "github.com/smallbiznis/stocksync/internal/commerce/domain"
	"github.com/smallbiznis/stocksync/internal/commerce/store"
	"go.uber.org/fx"
)

var Module = fx.Module("commerce",
	fx.Provide(
		fx.Annotate(store.New, fx.As(new(commercedomain.Store))),
	),
)
