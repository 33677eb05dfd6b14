package sale

import "go.uber.org/fx"

// Module provides the sales service to Fx.
var Module = fx.Provide(NewService)
