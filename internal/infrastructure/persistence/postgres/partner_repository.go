// Package postgres - PartnerRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/vowdesk/internal/application/ports"
	"github.com/Haleralex/vowdesk/internal/domain/entities"
	domainErrors "github.com/Haleralex/vowdesk/internal/domain/errors"
)

// Compile-time check: PartnerRepository implements ports.PartnerRepository
var _ ports.PartnerRepository = (*PartnerRepository)(nil)

const partnerEmailConstraint = "partners_tenant_email_unique"

const partnerColumns = `id, tenant_id, company_name, contact_email, category, website,
	status, rejection_reason, created_at, updated_at, reviewed_at, version`

// PartnerRepository реализует ports.PartnerRepository с использованием PostgreSQL.
//
// Thread-safe: использует connection pool.
// Transaction-aware: автоматически использует транзакцию из context если есть.
type PartnerRepository struct {
	pool     *pgxpool.Pool
	observer QueryObserver
}

// NewPartnerRepository создаёт новый PartnerRepository. observer может быть nil.
func NewPartnerRepository(pool *pgxpool.Pool, observer QueryObserver) *PartnerRepository {
	return &PartnerRepository{pool: pool, observer: observer}
}

func (r *PartnerRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create вставляет нового партнёра.
func (r *PartnerRepository) Create(ctx context.Context, p *entities.Partner) error {
	defer observe(r.observer, "partner_insert")()

	query := `INSERT INTO partners (` + partnerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.getQuerier(ctx).Exec(ctx, query,
		p.ID(), p.TenantID(), p.CompanyName(), p.ContactEmail(), string(p.Category()), p.Website(),
		string(p.Status()), p.RejectionReason(), p.CreatedAt(), p.UpdatedAt(), p.ReviewedAt(), p.Version(),
	)
	if err != nil {
		return r.writeError("insert", p, err)
	}
	return nil
}

// Update сохраняет профиль и статус с optimistic locking.
//
// Entity уже увеличила версию, поэтому в БД ожидается Version()-1.
// Если строку успел изменить другой запрос, возвращается Conflict:
// решение принималось по устаревшему статусу.
func (r *PartnerRepository) Update(ctx context.Context, p *entities.Partner) error {
	defer observe(r.observer, "partner_update")()

	query := `
		UPDATE partners SET
			company_name = $3,
			contact_email = $4,
			category = $5,
			website = $6,
			status = $7,
			rejection_reason = $8,
			updated_at = $9,
			reviewed_at = $10,
			version = $11
		WHERE id = $1 AND tenant_id = $2 AND version = $12
	`

	expectedVersion := p.Version() - 1
	q := r.getQuerier(ctx)

	tag, err := q.Exec(ctx, query,
		p.ID(), p.TenantID(), p.CompanyName(), p.ContactEmail(), string(p.Category()), p.Website(),
		string(p.Status()), p.RejectionReason(), p.UpdatedAt(), p.ReviewedAt(), p.Version(), expectedVersion,
	)
	if err != nil {
		return r.writeError("update", p, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// 0 строк: партнёр удалён или версия ушла вперёд
	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM partners WHERE id = $1 AND tenant_id = $2)`,
		p.ID(), p.TenantID(),
	).Scan(&exists); err != nil {
		return domainErrors.Database("select", err)
	}
	if !exists {
		return domainErrors.NotFound("Partner", p.ID().String())
	}
	return domainErrors.Conflict(fmt.Sprintf(
		"partner %s was modified by another request (expected version: %d)", p.ID(), expectedVersion))
}

// FindByID загружает партнёра тенанта.
func (r *PartnerRepository) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*entities.Partner, error) {
	defer observe(r.observer, "partner_select")()

	query := `SELECT ` + partnerColumns + ` FROM partners WHERE id = $1 AND tenant_id = $2`

	p, err := scanPartner(r.getQuerier(ctx).QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.NotFound("Partner", id.String())
		}
		return nil, domainErrors.Database("select", err)
	}
	return p, nil
}

// List возвращает страницу и общее количество.
// Сортировка: новые первыми, id как tie-breaker для стабильной пагинации.
func (r *PartnerRepository) List(ctx context.Context, f ports.PartnerFilter, offset, limit int) ([]*entities.Partner, int, error) {
	defer observe(r.observer, "partner_list")()

	where, args := buildPartnerFilter(f)
	q := r.getQuerier(ctx)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM partners WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, domainErrors.Database("count", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM partners WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		partnerColumns, where, len(args)+1, len(args)+2)

	rows, err := q.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, domainErrors.Database("select", err)
	}
	defer rows.Close()

	partners := make([]*entities.Partner, 0, limit)
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, 0, domainErrors.Database("scan", err)
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domainErrors.Database("select", err)
	}

	return partners, total, nil
}

// Delete удаляет партнёра тенанта.
func (r *PartnerRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	defer observe(r.observer, "partner_delete")()

	tag, err := r.getQuerier(ctx).Exec(ctx, `DELETE FROM partners WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return domainErrors.Database("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.NotFound("Partner", id.String())
	}
	return nil
}

func (r *PartnerRepository) writeError(op string, p *entities.Partner, err error) error {
	switch {
	case isUniqueViolation(err, partnerEmailConstraint):
		return domainErrors.AlreadyExists(
			fmt.Sprintf("Partner with contact email '%s' already exists", p.ContactEmail()))
	case isConstraintViolation(err):
		return domainErrors.Constraint("Partner violates a storage constraint", err)
	default:
		return domainErrors.Database(op, err)
	}
}

func buildPartnerFilter(f ports.PartnerFilter) (string, []any) {
	clauses := []string{"tenant_id = $1"}
	args := []any{f.TenantID}

	if f.Status != nil {
		args = append(args, string(*f.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Category != nil {
		args = append(args, string(*f.Category))
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

// scanPartner сканирует строку в domain entity Partner.
func scanPartner(row pgx.Row) (*entities.Partner, error) {
	var (
		id                              uuid.UUID
		tenantID, name, email, category string
		website, status, reason         string
		createdAt, updatedAt            time.Time
		reviewedAt                      *time.Time
		version                         int64
	)

	if err := row.Scan(&id, &tenantID, &name, &email, &category, &website,
		&status, &reason, &createdAt, &updatedAt, &reviewedAt, &version); err != nil {
		return nil, err
	}

	return entities.ReconstructPartner(
		id, tenantID, name, email,
		entities.PartnerCategory(category), website,
		entities.PartnerStatus(status), reason,
		createdAt, updatedAt, reviewedAt, version,
	), nil
}
