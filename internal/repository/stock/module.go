package stock

import "go.uber.org/fx"

// Module provides the incoming stock repository to Fx.
var Module = fx.Provide(NewRepository)
