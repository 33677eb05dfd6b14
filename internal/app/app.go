package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/sistemact/internal/cache"
	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/database"
	"github.com/Additional-Code/sistemact/internal/integration"
	"github.com/Additional-Code/sistemact/internal/integration/mercadolibre"
	"github.com/Additional-Code/sistemact/internal/integration/tiendanube"
	"github.com/Additional-Code/sistemact/internal/logger"
	"github.com/Additional-Code/sistemact/internal/messaging"
	"github.com/Additional-Code/sistemact/internal/observability"
	repositorycredential "github.com/Additional-Code/sistemact/internal/repository/credential"
	repositorysale "github.com/Additional-Code/sistemact/internal/repository/sale"
	repositorystock "github.com/Additional-Code/sistemact/internal/repository/stock"
	repositorytask "github.com/Additional-Code/sistemact/internal/repository/task"
	grpcserver "github.com/Additional-Code/sistemact/internal/server/grpc"
	httpserver "github.com/Additional-Code/sistemact/internal/server/http"
	serviceauth "github.com/Additional-Code/sistemact/internal/service/auth"
	servicecredential "github.com/Additional-Code/sistemact/internal/service/credential"
	servicesale "github.com/Additional-Code/sistemact/internal/service/sale"
	"github.com/Additional-Code/sistemact/internal/service/salesync"
	servicestock "github.com/Additional-Code/sistemact/internal/service/stock"
	servicetask "github.com/Additional-Code/sistemact/internal/service/task"
	transporthttp "github.com/Additional-Code/sistemact/internal/transport/http"
	"github.com/Additional-Code/sistemact/internal/worker"
	workersales "github.com/Additional-Code/sistemact/internal/worker/sales"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositorycredential.Module,
	repositorysale.Module,
	repositorytask.Module,
	repositorystock.Module,
	servicecredential.Module,
	servicesale.Module,
	servicetask.Module,
	servicestock.Module,
	serviceauth.Module,
)

// Sync adds the platform connectors and the reconciliation engine.
var Sync = fx.Options(
	Core,
	integration.Module,
	mercadolibre.Module,
	tiendanube.Module,
	salesync.Module,
)

// HTTP wires the HTTP (and optional gRPC) transport on top of the sync stack.
var HTTP = fx.Options(
	Sync,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Sync,
	worker.Module,
	workersales.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
