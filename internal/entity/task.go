package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Task is an internal to-do item.
type Task struct {
	bun.BaseModel `bun:"table:tasks"`

	ID          int64     `bun:",pk,autoincrement"`
	Description string    `bun:"description,notnull"`
	Priority    string    `bun:"priority,notnull"`
	Completed   bool      `bun:"completed,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}

// IncomingStock is one line of an inbound merchandise receipt.
type IncomingStock struct {
	bun.BaseModel `bun:"table:incoming_stock"`

	ID        int64     `bun:",pk,autoincrement"`
	Barcode   string    `bun:"barcode"`
	SKU       string    `bun:"sku"`
	Article   string    `bun:"article,notnull"`
	Quantity  int       `bun:"quantity,notnull"`
	Checked   bool      `bun:"checked,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
