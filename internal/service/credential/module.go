package credential

import "go.uber.org/fx"

// Module provides the credential service to Fx.
var Module = fx.Provide(NewService)
