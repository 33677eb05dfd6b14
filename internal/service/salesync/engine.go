package salesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/entity"
	"github.com/Additional-Code/sistemact/internal/integration"
	"github.com/Additional-Code/sistemact/internal/messaging"
	salerepo "github.com/Additional-Code/sistemact/internal/repository/sale"
	credsvc "github.com/Additional-Code/sistemact/internal/service/credential"
	salesvc "github.com/Additional-Code/sistemact/internal/service/sale"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

// Domain events published by the engine.
const (
	EventSyncRequested = "sync.requested"
	EventSyncCompleted = "sync.completed"
)

var engineTracer = otel.Tracer("github.com/Additional-Code/sistemact/service/salesync")

// ErrStopped is returned by Trigger once shutdown has begun.
var ErrStopped = errors.New("sync engine stopped")

type credentialSource interface {
	Latest(ctx context.Context, platform string) (*entity.Credential, error)
}

type lineStore interface {
	ListBySource(ctx context.Context, src entity.Source) ([]entity.OrderLine, error)
	SaleNumbersOutside(ctx context.Context, src entity.Source, numbers []string) ([]string, error)
	DeleteBySource(ctx context.Context, src entity.Source) (int64, error)
	CreateMany(ctx context.Context, rows []entity.OrderLine) error
}

type listInvalidator interface {
	InvalidateList(ctx context.Context)
}

// Result summarises one reconciliation run.
type Result struct {
	Platform  integration.Platform
	Orders    int
	Inserted  int
	Removed   int64
	Preserved int
	// Skipped counts rows left out because another source already owns their sale number.
	Skipped  int
	Duration time.Duration
}

// Params defines dependencies for constructing Engine.
type Params struct {
	fx.In

	Registry    *integration.Registry
	Coordinator Coordinator
	Credentials *credsvc.Service
	Sales       *salerepo.Repository
	SaleService *salesvc.Service
	Publisher   messaging.Client
	Config      config.Config
	Logger      *zap.Logger
}

// Engine reconciles remote paid orders into the sales board, one platform at a time.
type Engine struct {
	registry    *integration.Registry
	coord       Coordinator
	creds       credentialSource
	store       lineStore
	invalidator listInvalidator
	publisher   messaging.Client
	messaging   bool
	metrics     *syncMetrics
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewEngine wires a new Engine instance.
func NewEngine(p Params) *Engine {
	return &Engine{
		registry:    p.Registry,
		coord:       p.Coordinator,
		creds:       p.Credentials,
		store:       p.Sales,
		invalidator: p.SaleService,
		publisher:   p.Publisher,
		messaging:   p.Config.Messaging.Enabled,
		metrics:     newSyncMetrics(),
		logger:      p.Logger,
		now:         time.Now,
	}
}

// Trigger starts a background run for platform and returns immediately. started is false
// when a run for the platform is already in flight.
func (e *Engine) Trigger(ctx context.Context, platform integration.Platform) (bool, error) {
	conn, err := e.connector(platform)
	if err != nil {
		return false, err
	}

	// the slot is reserved before acquiring so Shutdown waits for acquisitions in progress
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return false, ErrStopped
	}
	e.wg.Add(1)
	e.mu.Unlock()

	lease, err := e.coord.TryAcquire(ctx, platform)
	if errors.Is(err, ErrBusy) {
		e.wg.Done()
		e.logger.Info("sync already running", zap.String("platform", string(platform)))
		return false, nil
	}
	if err != nil {
		e.wg.Done()
		return false, errorbank.Internal("failed to acquire sync guard", errorbank.WithCause(err))
	}

	// the run outlives the triggering request
	runCtx := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))
	go func() {
		defer e.wg.Done()
		defer func() {
			if err := lease.Release(runCtx); err != nil {
				e.logger.Error("release sync guard failed", zap.String("platform", string(platform)), zap.Error(err))
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("sync run panicked", zap.String("platform", string(platform)), zap.Any("panic", r))
			}
		}()
		// failures are logged inside reconcile; nobody is waiting for the result
		_, _ = e.reconcile(runCtx, conn)
	}()
	return true, nil
}

// Run performs a guarded reconciliation synchronously.
func (e *Engine) Run(ctx context.Context, platform integration.Platform) (Result, error) {
	conn, err := e.connector(platform)
	if err != nil {
		return Result{}, err
	}
	var res Result
	err = WithLease(ctx, e.coord, platform, func(ctx context.Context) error {
		var runErr error
		res, runErr = e.reconcile(ctx, conn)
		return runErr
	})
	if errors.Is(err, ErrBusy) {
		return Result{}, errorbank.Conflict("sync already running", errorbank.WithCause(err), errorbank.WithDetail("platform", string(platform)))
	}
	return res, err
}

// Status reports whether a run is in flight for platform.
func (e *Engine) Status(ctx context.Context, platform integration.Platform) (bool, error) {
	if _, err := e.connector(platform); err != nil {
		return false, err
	}
	state, err := e.coord.State(ctx, platform)
	if err != nil {
		return false, errorbank.Internal("failed to read sync state", errorbank.WithCause(err))
	}
	return state == Running, nil
}

// RequestSync publishes a sync request for the worker to pick up.
func (e *Engine) RequestSync(ctx context.Context, platform integration.Platform) error {
	if _, err := e.connector(platform); err != nil {
		return err
	}
	if !e.messaging || e.publisher == nil {
		return errorbank.Unprocessable("messaging is disabled")
	}
	event := SyncRequestedEvent{Platform: string(platform), RequestedAt: e.now().UTC()}
	if err := messaging.PublishJSON(ctx, e.publisher, EventSyncRequested, string(platform), event); err != nil {
		return errorbank.Internal("failed to publish sync request", errorbank.WithCause(err))
	}
	return nil
}

// Shutdown rejects new triggers and waits for background runs to finish.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) connector(platform integration.Platform) (integration.Connector, error) {
	conn, ok := e.registry.Get(platform)
	if !ok {
		return nil, errorbank.NotFound("unknown platform", errorbank.WithDetail("platform", string(platform)))
	}
	return conn, nil
}

func (e *Engine) reconcile(ctx context.Context, conn integration.Connector) (res Result, err error) {
	platform := conn.Platform()
	log := e.logger.With(zap.String("platform", string(platform)))
	ctx, span := engineTracer.Start(ctx, "SaleSync.Reconcile", trace.WithAttributes(
		attribute.String("sync.platform", string(platform)),
	))
	defer span.End()

	start := e.now()
	res.Platform = platform
	defer func() {
		res.Duration = e.now().Sub(start)
		e.metrics.record(ctx, string(platform), res.Inserted, res.Duration, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sync failed")
		}
		e.publishCompleted(ctx, res, err)
	}()

	log.Info("sync started")

	cred, err := e.creds.Latest(ctx, string(platform))
	if err != nil {
		log.Warn("sync aborted: no usable credential", zap.Error(err))
		return res, err
	}

	orders, err := conn.FetchPaidOrders(ctx, cred)
	if err != nil {
		log.Error("sync aborted: fetch failed", zap.Error(err))
		return res, errorbank.BadGateway("failed to fetch remote orders",
			errorbank.WithCause(err), errorbank.WithDetail("platform", string(platform)))
	}
	res.Orders = len(orders)

	existing, err := e.store.ListBySource(ctx, conn.Source())
	if err != nil {
		log.Error("sync aborted: load existing rows failed", zap.Error(err))
		return res, errorbank.Internal("failed to load existing sales", errorbank.WithCause(err))
	}
	prior := priorFlags(existing, conn)

	rows := buildRows(orders, conn, prior)

	// a collision found after the delete would leave the partition empty
	taken, err := e.store.SaleNumbersOutside(ctx, conn.Source(), saleNumbers(rows))
	if err != nil {
		log.Error("sync aborted: sale number check failed", zap.Error(err))
		return res, errorbank.Internal("failed to check sale numbers", errorbank.WithCause(err))
	}
	if len(taken) > 0 {
		log.Warn("skipping rows whose sale number belongs to another source", zap.Strings("sale_numbers", taken))
		rows = withoutSaleNumbers(rows, taken)
		res.Skipped = len(taken)
	}

	for _, r := range rows {
		if r.Completed || r.Delivered {
			res.Preserved++
		}
	}

	res.Removed, err = e.store.DeleteBySource(ctx, conn.Source())
	if err != nil {
		log.Error("sync aborted: delete failed", zap.Error(err))
		return res, errorbank.Internal("failed to replace sales", errorbank.WithCause(err))
	}

	if len(rows) > 0 {
		if err := e.store.CreateMany(ctx, rows); err != nil {
			log.Error("sync insert failed after delete; rows are missing until the next successful sync",
				zap.Int64("removed", res.Removed),
				zap.Int("lost", len(rows)),
				zap.Error(err),
			)
			e.invalidator.InvalidateList(ctx)
			return res, errorbank.Internal("failed to insert synchronized sales", errorbank.WithCause(err))
		}
	}
	res.Inserted = len(rows)
	e.invalidator.InvalidateList(ctx)

	span.SetAttributes(
		attribute.Int("sync.orders", res.Orders),
		attribute.Int("sync.inserted", res.Inserted),
		attribute.Int64("sync.removed", res.Removed),
	)
	log.Info("sync finished",
		zap.Int("orders", res.Orders),
		zap.Int("inserted", res.Inserted),
		zap.Int64("removed", res.Removed),
		zap.Int("preserved", res.Preserved),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

type flags struct {
	completed bool
	delivered bool
}

// priorFlags indexes the user-set flags of existing rows by order id. Lines of the same
// order are merged with a logical OR.
func priorFlags(rows []entity.OrderLine, conn integration.Connector) map[string]flags {
	out := make(map[string]flags, len(rows))
	for _, r := range rows {
		key := orderKey(r, conn)
		f := out[key]
		f.completed = f.completed || r.Completed
		f.delivered = f.delivered || r.Delivered
		out[key] = f
	}
	return out
}

func orderKey(r entity.OrderLine, conn integration.Connector) string {
	if r.OrderID != "" {
		return r.OrderID
	}
	if id := conn.OrderIDFromRow(r.SaleNumber); id != "" {
		return id
	}
	return r.SaleNumber
}

// buildRows turns paid orders into order lines. Lines that synthesize the same sale number
// are merged into one row with the quantities summed.
func buildRows(orders []integration.Order, conn integration.Connector, prior map[string]flags) []entity.OrderLine {
	rows := make([]entity.OrderLine, 0, len(orders))
	index := make(map[string]int, len(orders))

	for _, o := range orders {
		if !o.Paid() {
			continue
		}
		f := prior[o.ExternalOrderID]
		dispatch := integration.ClassifyDispatch(o.ShippingLabel)

		for _, item := range o.LineItems {
			id := conn.RowID(o, item)
			if i, ok := index[id]; ok {
				rows[i].Quantity += item.Quantity
				continue
			}
			row := entity.OrderLine{
				SaleNumber:    id,
				OrderID:       o.ExternalOrderID,
				SKU:           item.SKU,
				ProductName:   item.Name,
				Quantity:      item.Quantity,
				UnitPrice:     item.UnitPrice,
				CustomerName:  o.CustomerName,
				DispatchPoint: dispatch,
				ShipmentType:  o.ShippingLabel,
				Note:          o.Note,
				ImageURL:      item.ImageURL,
				VariationID:   item.VariationID,
				Attributes:    item.VariantName,
				Completed:     f.completed,
				Delivered:     f.delivered,
			}
			row.SetSource(conn.Source())
			index[id] = len(rows)
			rows = append(rows, row)
		}
	}
	return rows
}

func saleNumbers(rows []entity.OrderLine) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.SaleNumber
	}
	return out
}

func withoutSaleNumbers(rows []entity.OrderLine, numbers []string) []entity.OrderLine {
	drop := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		drop[n] = struct{}{}
	}
	kept := rows[:0]
	for _, r := range rows {
		if _, ok := drop[r.SaleNumber]; !ok {
			kept = append(kept, r)
		}
	}
	return kept
}

func (e *Engine) publishCompleted(ctx context.Context, res Result, runErr error) {
	if !e.messaging || e.publisher == nil {
		return
	}
	event := SyncCompletedEvent{
		Platform:   string(res.Platform),
		Orders:     res.Orders,
		Inserted:   res.Inserted,
		Removed:    res.Removed,
		Skipped:    res.Skipped,
		DurationMS: res.Duration.Milliseconds(),
		FinishedAt: e.now().UTC(),
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if err := messaging.PublishJSON(ctx, e.publisher, EventSyncCompleted, string(res.Platform), event); err != nil {
		e.logger.Error("publish sync completed", zap.String("platform", string(res.Platform)), zap.Error(err))
	}
}

// SyncRequestedEvent asks a worker to run a guarded sync.
type SyncRequestedEvent struct {
	Platform    string    `json:"platform"`
	RequestedAt time.Time `json:"requested_at"`
}

// SyncCompletedEvent is emitted after every run, successful or not.
type SyncCompletedEvent struct {
	Platform   string    `json:"platform"`
	Orders     int       `json:"orders"`
	Inserted   int       `json:"inserted"`
	Removed    int64     `json:"removed"`
	Skipped    int       `json:"skipped,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

func (r Result) String() string {
	out := fmt.Sprintf("%s: %d orders, %d rows inserted, %d removed, %d with preserved flags",
		r.Platform, r.Orders, r.Inserted, r.Removed, r.Preserved)
	if r.Skipped > 0 {
		out += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	return out + fmt.Sprintf(" (%s)", r.Duration.Round(time.Millisecond))
}
