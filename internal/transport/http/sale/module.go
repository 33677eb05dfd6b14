package sale

import "go.uber.org/fx"

// Module wires HTTP sale handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
