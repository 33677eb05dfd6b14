package stock

import "go.uber.org/fx"

var Module = fx.Provide(NewService)
