package platform

import "go.uber.org/fx"

// Module wires the platform OAuth and sync handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
