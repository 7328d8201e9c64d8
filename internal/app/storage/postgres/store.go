package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/domain/submission"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage"
	"github.com/R3E-Network/xrpl_service_layer/internal/platform/migrations"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.SubmissionStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn, applies migrations and returns a ready store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := migrations.Apply(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// submissionRow mirrors ledger_submissions; amount is nullable JSONB.
type submissionRow struct {
	ID           string         `db:"id"`
	Kind         string         `db:"kind"`
	Account      string         `db:"account"`
	Destination  string         `db:"destination"`
	Amount       sql.NullString `db:"amount"`
	Hash         string         `db:"hash"`
	EngineResult string         `db:"engine_result"`
	LedgerIndex  int64          `db:"ledger_index"`
	Status       string         `db:"status"`
	Error        string         `db:"error"`
	CreatedAt    time.Time      `db:"created_at"`
}

func toRow(sub submission.Submission) submissionRow {
	row := submissionRow{
		ID:           sub.ID,
		Kind:         string(sub.Kind),
		Account:      sub.Account,
		Destination:  sub.Destination,
		Hash:         sub.Hash,
		EngineResult: sub.EngineResult,
		LedgerIndex:  sub.LedgerIndex,
		Status:       string(sub.Status),
		Error:        sub.Error,
		CreatedAt:    sub.CreatedAt,
	}
	if len(sub.Amount) > 0 {
		row.Amount = sql.NullString{String: string(sub.Amount), Valid: true}
	}
	return row
}

func (r submissionRow) toDomain() submission.Submission {
	sub := submission.Submission{
		ID:           r.ID,
		Kind:         submission.Kind(r.Kind),
		Account:      r.Account,
		Destination:  r.Destination,
		Hash:         r.Hash,
		EngineResult: r.EngineResult,
		LedgerIndex:  r.LedgerIndex,
		Status:       submission.Status(r.Status),
		Error:        r.Error,
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if r.Amount.Valid {
		sub.Amount = []byte(r.Amount.String)
	}
	return sub
}

// --- SubmissionStore --------------------------------------------------------

const submissionColumns = `id, kind, account, destination, amount, hash, engine_result, ledger_index, status, error, created_at`

func (s *Store) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO ledger_submissions (`+submissionColumns+`)
		VALUES (:id, :kind, :account, :destination, :amount, :hash, :engine_result, :ledger_index, :status, :error, :created_at)
	`, toRow(sub))
	if err != nil {
		return submission.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	var row submissionRow
	err := s.db.GetContext(ctx, &row, `SELECT `+submissionColumns+` FROM ledger_submissions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return submission.Submission{}, fmt.Errorf("submission %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListSubmissions(ctx context.Context, limit int) ([]submission.Submission, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []submissionRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT `+submissionColumns+`
		FROM ledger_submissions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	out := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
