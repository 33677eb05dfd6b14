package sale

import "go.uber.org/fx"

// Module provides the sales repository to Fx.
var Module = fx.Provide(NewRepository)
