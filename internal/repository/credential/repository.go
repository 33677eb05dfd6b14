package credential

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/sistemact/internal/database"
	"github.com/Additional-Code/sistemact/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/sistemact/repository/credential")

// ErrNotFound is returned when no credential matches.
var ErrNotFound = errors.New("credential not found")

// Repository persists platform OAuth credentials.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Upsert replaces the credential stored for (platform, account id) or inserts a new one.
// The select and the write share a transaction so the statement works on every dialect.
func (r *Repository) Upsert(ctx context.Context, cred *entity.Credential) error {
	if cred == nil {
		return errors.New("nil credential")
	}
	ctx, span := repoTracer.Start(ctx, "CredentialRepository.Upsert", trace.WithAttributes(
		attribute.String("credential.platform", cred.Platform),
		attribute.String("credential.account_id", cred.AccountID),
	))
	defer span.End()

	now := time.Now().UTC()
	if cred.IssuedAt.IsZero() {
		cred.IssuedAt = now
	}
	cred.UpdatedAt = now

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := new(entity.Credential)
		err := tx.NewSelect().Model(existing).
			Column("id").
			Where("platform = ?", cred.Platform).
			Where("account_id = ?", cred.AccountID).
			Limit(1).
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.NewInsert().Model(cred).Exec(ctx)
			return err
		case err != nil:
			return err
		}

		cred.ID = existing.ID
		_, err = tx.NewUpdate().Model(cred).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
	}
	return err
}

// Latest returns the most recently issued credential for a platform.
func (r *Repository) Latest(ctx context.Context, platform string) (*entity.Credential, error) {
	ctx, span := repoTracer.Start(ctx, "CredentialRepository.Latest", trace.WithAttributes(attribute.String("credential.platform", platform)))
	defer span.End()

	cred := new(entity.Credential)
	err := r.reader.NewSelect().Model(cred).
		Where("platform = ?", platform).
		OrderExpr("issued_at DESC, id DESC").
		Limit(1).
		Scan(ctx)
	return r.result(span, cred, err)
}

// ForAccount returns the credential of one connected account.
func (r *Repository) ForAccount(ctx context.Context, platform, accountID string) (*entity.Credential, error) {
	ctx, span := repoTracer.Start(ctx, "CredentialRepository.ForAccount", trace.WithAttributes(
		attribute.String("credential.platform", platform),
		attribute.String("credential.account_id", accountID),
	))
	defer span.End()

	cred := new(entity.Credential)
	err := r.reader.NewSelect().Model(cred).
		Where("platform = ?", platform).
		Where("account_id = ?", accountID).
		Limit(1).
		Scan(ctx)
	return r.result(span, cred, err)
}

// CountForAccount reports how many rows exist for one account.
func (r *Repository) CountForAccount(ctx context.Context, platform, accountID string) (int, error) {
	return r.reader.NewSelect().Model((*entity.Credential)(nil)).
		Where("platform = ?", platform).
		Where("account_id = ?", accountID).
		Count(ctx)
}

func (r *Repository) result(span trace.Span, cred *entity.Credential, err error) (*entity.Credential, error) {
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return cred, nil
}
