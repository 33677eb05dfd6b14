package task

import "go.uber.org/fx"

// Module wires HTTP task handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
