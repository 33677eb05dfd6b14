package sales

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/integration"
	"github.com/Additional-Code/sistemact/internal/messaging"
	salesvc "github.com/Additional-Code/sistemact/internal/service/sale"
	"github.com/Additional-Code/sistemact/internal/service/salesync"
	"github.com/Additional-Code/sistemact/internal/worker"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/sistemact/worker/sales")

// Module registers sales-related worker handlers.
var Module = fx.Module("worker_sales",
	fx.Provide(
		fx.Annotate(NewSyncRequestedHandler, fx.ResultTags(worker.HandlerGroup)),
		fx.Annotate(NewSyncCompletedHandler, fx.ResultTags(worker.HandlerGroup)),
		fx.Annotate(NewSaleCreatedHandler, fx.ResultTags(worker.HandlerGroup)),
	),
)

type syncRunner interface {
	Run(ctx context.Context, platform integration.Platform) (salesync.Result, error)
}

// NewSyncRequestedHandler runs a guarded reconciliation for every sync request. Requests that
// find a run already in flight are dropped, matching the HTTP trigger.
func NewSyncRequestedHandler(engine *salesync.Engine, logger *zap.Logger) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Event:   salesync.EventSyncRequested,
		Handler: syncRequested(engine, logger),
	}
}

func syncRequested(engine syncRunner, logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.sales.syncRequested", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event salesync.SyncRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			// undecodable requests would fail forever; acknowledge them
			logger.Error("failed to decode sync request", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}
		platform, err := integration.ParsePlatform(event.Platform)
		if err != nil {
			logger.Warn("sync requested for unknown platform", zap.String("platform", event.Platform))
			return nil
		}
		span.SetAttributes(attribute.String("platform", string(platform)))

		res, err := engine.Run(ctx, platform)
		switch {
		case errorbank.Is(err, errorbank.KindConflict):
			logger.Info("sync request skipped; run in progress", zap.String("platform", string(platform)))
			return nil
		case errorbank.Is(err, errorbank.KindNotFound):
			logger.Warn("sync request skipped", zap.String("platform", string(platform)), zap.Error(err))
			return nil
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, "sync failed")
			return err
		}

		logger.Info("sync request processed",
			zap.String("platform", string(platform)),
			zap.Int("inserted", res.Inserted),
			zap.Int64("removed", res.Removed),
		)
		return nil
	}
}

// NewSyncCompletedHandler logs the outcome of every reconciliation run.
func NewSyncCompletedHandler(logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		var event salesync.SyncCompletedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode sync completed", zap.Error(err))
			return nil
		}

		fields := []zap.Field{
			zap.String("platform", event.Platform),
			zap.Int("orders", event.Orders),
			zap.Int("inserted", event.Inserted),
			zap.Int64("removed", event.Removed),
		}
		if event.Error != "" {
			logger.Warn("sync completed with error", append(fields, zap.String("error", event.Error))...)
			return nil
		}
		logger.Info("sync completed", fields...)
		return nil
	}

	return worker.HandlerRegistration{Event: salesync.EventSyncCompleted, Handler: handler}
}

// NewSaleCreatedHandler logs manually entered sales.
func NewSaleCreatedHandler(logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		var event salesvc.SaleCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode sale created", zap.Error(err))
			return nil
		}
		logger.Info("sale created event processed",
			zap.Strings("sale_numbers", event.SaleNumbers),
			zap.Time("created_at", event.CreatedAt),
		)
		return nil
	}

	return worker.HandlerRegistration{Event: salesvc.EventSaleCreated, Handler: handler}
}
