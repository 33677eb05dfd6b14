package http

import (
	"go.uber.org/fx"

	authtransport "github.com/Additional-Code/sistemact/internal/transport/http/auth"
	platformtransport "github.com/Additional-Code/sistemact/internal/transport/http/platform"
	saletransport "github.com/Additional-Code/sistemact/internal/transport/http/sale"
	stocktransport "github.com/Additional-Code/sistemact/internal/transport/http/stock"
	tasktransport "github.com/Additional-Code/sistemact/internal/transport/http/task"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	authtransport.Module,
	saletransport.Module,
	platformtransport.Module,
	tasktransport.Module,
	stocktransport.Module,
)
