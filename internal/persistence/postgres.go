package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/composer/internal/models"
)

// Postgres stores templates, preferred accounts and saved drafts in PostgreSQL.
// Form fields and event payloads are kept as JSONB.
type Postgres struct {
	pool          *pgxpool.Pool
	templateLimit int
}

// NewPostgres creates a store on pool. templateLimit <= 0 uses models.MaxTemplatesPerAccount.
func NewPostgres(pool *pgxpool.Pool, templateLimit int) *Postgres {
	if templateLimit <= 0 {
		templateLimit = models.MaxTemplatesPerAccount
	}
	return &Postgres{pool: pool, templateLimit: templateLimit}
}

// ListTemplates returns the account's templates, oldest first.
func (r *Postgres) ListTemplates(ctx context.Context, accountID string) ([]models.Template, error) {
	const query = `SELECT id::text, account_id, form_name, fields, created_at, updated_at
		FROM form_templates WHERE account_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Template{}
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.AccountID, &t.FormName, &t.Fields, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// GetTemplate returns a template by ID.
func (r *Postgres) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	const query = `SELECT id::text, account_id, form_name, fields, created_at, updated_at
		FROM form_templates WHERE id::text = $1`
	var t models.Template
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.AccountID, &t.FormName, &t.Fields, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate inserts t unless the account is at its template limit.
// ID and timestamps are filled from the database.
func (r *Postgres) CreateTemplate(ctx context.Context, t *models.Template) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Serialize concurrent inserts of one account so the count stays honest.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.AccountID); err != nil {
		return err
	}
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM form_templates WHERE account_id = $1`, t.AccountID).Scan(&count); err != nil {
		return err
	}
	if count >= r.templateLimit {
		return ErrTemplateLimit
	}
	const query = `INSERT INTO form_templates (account_id, form_name, fields)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at, updated_at`
	if err := tx.QueryRow(ctx, query, t.AccountID, t.FormName, t.Fields).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateTemplate applies patch and returns the stored template.
func (r *Postgres) UpdateTemplate(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	var fields interface{}
	if patch.Fields != nil {
		fields = patch.Fields
	}
	const query = `UPDATE form_templates SET
			form_name = COALESCE($2, form_name),
			fields = COALESCE($3::jsonb, fields),
			updated_at = NOW()
		WHERE id::text = $1
		RETURNING id::text, account_id, form_name, fields, created_at, updated_at`
	var t models.Template
	err := r.pool.QueryRow(ctx, query, id, patch.FormName, fields).
		Scan(&t.ID, &t.AccountID, &t.FormName, &t.Fields, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTemplate removes a template. Deleting a missing template is not an error.
func (r *Postgres) DeleteTemplate(ctx context.Context, id string) error {
	const query = `DELETE FROM form_templates WHERE id::text = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// ListPreferredPayments returns the account's preferred bank accounts, newest first.
func (r *Postgres) ListPreferredPayments(ctx context.Context, accountID string) ([]models.PreferPaymentItem, error) {
	const query = `SELECT id, bank_name, branch_name, account, account_name, type
		FROM preferred_payments WHERE account_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.PreferPaymentItem{}
	for rows.Next() {
		var p models.PreferPaymentItem
		if err := rows.Scan(&p.ID, &p.BankName, &p.BranchName, &p.Account, &p.AccountName, &p.Type); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdatePreferredPayment upserts the account with id. An id owned by another
// account is reported as ErrNotFound.
func (r *Postgres) UpdatePreferredPayment(ctx context.Context, accountID, id string, patch models.PreferPaymentPatch) (*models.PreferPaymentItem, error) {
	const query = `INSERT INTO preferred_payments (id, account_id, bank_name, branch_name, account, account_name, type)
		VALUES ($1, $2, COALESCE($3, ''), COALESCE($4, ''), COALESCE($5, ''), COALESCE($6, ''), COALESCE($7, 'ATM'))
		ON CONFLICT (id) DO UPDATE SET
			bank_name = COALESCE($3, preferred_payments.bank_name),
			branch_name = COALESCE($4, preferred_payments.branch_name),
			account = COALESCE($5, preferred_payments.account),
			account_name = COALESCE($6, preferred_payments.account_name),
			type = COALESCE($7, preferred_payments.type),
			updated_at = NOW()
		WHERE preferred_payments.account_id = EXCLUDED.account_id
		RETURNING id, bank_name, branch_name, account, account_name, type`
	var p models.PreferPaymentItem
	err := r.pool.QueryRow(ctx, query, id, accountID, patch.BankName, patch.BranchName, patch.Account, patch.AccountName, patch.Type).
		Scan(&p.ID, &p.BankName, &p.BranchName, &p.Account, &p.AccountName, &p.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("preferred payment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePreferredPayment removes an account. Deleting a missing account is not an error.
func (r *Postgres) DeletePreferredPayment(ctx context.Context, id string) error {
	const query = `DELETE FROM preferred_payments WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// SaveEvent upserts the draft payload.
func (r *Postgres) SaveEvent(ctx context.Context, e *models.Event) error {
	const query = `INSERT INTO event_drafts (id, account_id, event_name, payload, created_at, saved_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			event_name = EXCLUDED.event_name,
			payload = EXCLUDED.payload,
			saved_at = NOW()
		RETURNING saved_at`
	var savedAt time.Time
	err := r.pool.QueryRow(ctx, query, e.ID, e.AccountID, e.EventName, e, e.CreatedAt).Scan(&savedAt)
	if err != nil {
		return err
	}
	e.SavedAt = &savedAt
	return nil
}

// GetEvent loads a saved draft.
func (r *Postgres) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	const query = `SELECT payload FROM event_drafts WHERE id::text = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, query, id).Scan(&e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
