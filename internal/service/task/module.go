package task

import "go.uber.org/fx"

// Module provides the task service to Fx.
var Module = fx.Provide(NewService)
