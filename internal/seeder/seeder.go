package seeder

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/database"
	"github.com/Additional-Code/sistemact/internal/entity"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All runs every seeder.
func (s *Seeder) All(ctx context.Context) error {
	for _, seed := range []func(context.Context) error{s.Sales, s.Tasks, s.IncomingStock} {
		if err := seed(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Sales seeds manual order lines if they are missing.
func (s *Seeder) Sales(ctx context.Context) error {
	samples := []entity.OrderLine{
		{
			SaleNumber:    "M-1000",
			SKU:           "REM-NEG-M",
			ProductName:   "Remera negra",
			Quantity:      2,
			UnitPrice:     decimal.RequireFromString("12500.00"),
			CustomerName:  "Cliente mostrador",
			DispatchPoint: entity.DispatchPickupPoint,
		},
		{
			SaleNumber:    "M-1001",
			SKU:           "BUZ-GRI-L",
			ProductName:   "Buzo gris",
			Quantity:      1,
			UnitPrice:     decimal.RequireFromString("31000.00"),
			CustomerName:  "Cliente WhatsApp",
			DispatchPoint: entity.DispatchCoordinate,
			Note:          "Retira el sábado",
		},
	}

	for _, sample := range samples {
		row := sample
		row.SetSource(entity.SourceManual)
		// Ignore renders ON CONFLICT DO NOTHING or INSERT IGNORE per dialect
		_, err := s.db.NewInsert().Model(&row).Ignore().Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.log("seeded sales", len(samples))
	return nil
}

// Tasks seeds example tasks into an empty table.
func (s *Seeder) Tasks(ctx context.Context) error {
	n, err := s.db.NewSelect().Model((*entity.Task)(nil)).Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	tasks := []entity.Task{
		{Description: "Controlar envíos Flex del día", Priority: "alta"},
		{Description: "Reponer cajas medianas", Priority: "media"},
	}
	if _, err := s.db.NewInsert().Model(&tasks).Exec(ctx); err != nil {
		return err
	}
	s.log("seeded tasks", len(tasks))
	return nil
}

// IncomingStock seeds an example receipt into an empty table.
func (s *Seeder) IncomingStock(ctx context.Context) error {
	n, err := s.db.NewSelect().Model((*entity.IncomingStock)(nil)).Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	items := []entity.IncomingStock{
		{Barcode: "7790000000017", SKU: "REM-NEG-M", Article: "Remera negra M", Quantity: 24},
		{Barcode: "7790000000024", SKU: "BUZ-GRI-L", Article: "Buzo gris L", Quantity: 10},
	}
	if _, err := s.db.NewInsert().Model(&items).Exec(ctx); err != nil {
		return err
	}
	s.log("seeded incoming stock", len(items))
	return nil
}

func (s *Seeder) log(msg string, count int) {
	if s.logger != nil {
		s.logger.Info(msg, zap.Int("count", count))
	}
}
