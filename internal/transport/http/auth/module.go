package auth

import "go.uber.org/fx"

// Module wires the login handler.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
