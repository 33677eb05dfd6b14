package stock

import "go.uber.org/fx"

// Module wires HTTP incoming stock handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
