package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/docverify/reconcile-cli/internal/db"
	"github.com/docverify/reconcile-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	cfg := db.PoolConfig{URL: connString, MaxConns: 10, MinConns: 2}
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			cfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			cfg.MinConns = poolCfg.MinConns
		}
	}
	pool, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	return NewPostgresFromPool(pool), nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

var postgresMigration = `
CREATE TABLE IF NOT EXISTS extracted_records (
	submission_id      BIGINT PRIMARY KEY,
	identity_name      TEXT,
	identity_number    TEXT,
	identity_dob       TEXT,
	tax_name           TEXT,
	tax_number         TEXT,
	tax_dob            TEXT,
	survey_no          TEXT,
	measuring_area     TEXT,
	village            TEXT,
	hobli              TEXT,
	taluk              TEXT,
	district           TEXT,
	application_number TEXT,
	applicant_name     TEXT,
	applicant_address  TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS canonical_identity (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	number     TEXT NOT NULL UNIQUE,
	dob        DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_canonical_identity_number_ci ON canonical_identity (lower(trim(number)));

CREATE TABLE IF NOT EXISTS canonical_tax (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	number     TEXT NOT NULL UNIQUE,
	dob        DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_canonical_tax_number_ci ON canonical_tax (lower(trim(number)));

CREATE TABLE IF NOT EXISTS canonical_land (
	id                 BIGSERIAL PRIMARY KEY,
	survey_no          TEXT,
	measuring_area     TEXT,
	village            TEXT,
	hobli              TEXT,
	taluk              TEXT,
	district           TEXT,
	latitude           DOUBLE PRECISION,
	longitude          DOUBLE PRECISION,
	owner_name         TEXT,
	extent             TEXT,
	land_type          TEXT,
	ownership_type     TEXT,
	is_main_owner      BOOLEAN NOT NULL DEFAULT false,
	is_govt_restricted BOOLEAN NOT NULL DEFAULT false,
	is_court_stay      BOOLEAN NOT NULL DEFAULT false,
	is_alienated       BOOLEAN NOT NULL DEFAULT false,
	any_transaction    BOOLEAN NOT NULL DEFAULT false,
	remarks            TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE NULLS NOT DISTINCT (survey_no, measuring_area, village, hobli, taluk, district)
);

CREATE INDEX IF NOT EXISTS idx_canonical_land_survey_ci ON canonical_land (lower(trim(survey_no)));

CREATE TABLE IF NOT EXISTS reconciliation_results (
	id            TEXT PRIMARY KEY,
	submission_id BIGINT NOT NULL UNIQUE,
` + resultColumnsDDL("BOOLEAN") + `	overall_match    BOOLEAN NOT NULL DEFAULT false,
	match_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
	risk_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	risk_tier        TEXT NOT NULL DEFAULT 'Low',
	status           TEXT NOT NULL DEFAULT 'Pending',
	verified_at      TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reconciliation_results_status ON reconciliation_results(status);
CREATE INDEX IF NOT EXISTS idx_reconciliation_results_verified_at ON reconciliation_results(verified_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Extracted records ---

var pgGetExtracted = "SELECT " + strings.Join(extractedColumns, ", ") + ", created_at FROM extracted_records WHERE submission_id = $1"

func (s *PostgresStore) GetExtracted(ctx context.Context, submissionID int64) (*model.ExtractedRecord, error) {
	var r model.ExtractedRecord
	err := s.pool.QueryRow(ctx, pgGetExtracted, submissionID).Scan(extractedDest(&r)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get extracted %d", submissionID)
	}
	return &r, nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]int64, error) {
	query := `SELECT e.submission_id FROM extracted_records e`
	if filter.OnlyPending {
		query += ` LEFT JOIN reconciliation_results r ON r.submission_id = e.submission_id WHERE r.id IS NULL OR r.status = 'Pending'`
	}
	query += ` ORDER BY e.submission_id`

	var args []any
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list submissions")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan submission id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: list submissions rows")
}

func (s *PostgresStore) SaveExtracted(ctx context.Context, recs []model.ExtractedRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i := range recs {
		rows[i] = extractedValues(&recs[i])
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "extracted_records",
		Columns:      extractedColumns,
		ConflictKeys: []string{"submission_id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: save extracted")
}

// --- Canonical records ---

const (
	pgFindIdentity = `SELECT id, name, number, dob, created_at FROM canonical_identity WHERE lower(trim(number)) = lower(trim($1)) ORDER BY id LIMIT 1`
	pgFindTax      = `SELECT id, name, number, dob, created_at FROM canonical_tax WHERE lower(trim(number)) = lower(trim($1)) ORDER BY id LIMIT 1`
)

var (
	pgFindLand           = landSelect + ` WHERE lower(trim(survey_no)) = lower(trim($1)) ORDER BY id LIMIT 1`
	pgFindLandByIdentity = landSelect + ` WHERE trim(survey_no) = $1 AND trim(measuring_area) = $2 AND trim(village) = $3 AND trim(hobli) = $4 AND trim(taluk) = $5 AND trim(district) = $6 ORDER BY id LIMIT 1`
)

func (s *PostgresStore) FindIdentity(ctx context.Context, number string) (*model.CanonicalIdentityRecord, error) {
	var r model.CanonicalIdentityRecord
	err := s.pool.QueryRow(ctx, pgFindIdentity, number).Scan(&r.ID, &r.Name, &r.Number, &r.DOB, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find identity")
	}
	return &r, nil
}

func (s *PostgresStore) FindTax(ctx context.Context, number string) (*model.CanonicalTaxRecord, error) {
	var r model.CanonicalTaxRecord
	err := s.pool.QueryRow(ctx, pgFindTax, number).Scan(&r.ID, &r.Name, &r.Number, &r.DOB, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find tax")
	}
	return &r, nil
}

func (s *PostgresStore) FindLand(ctx context.Context, surveyNo string) (*model.CanonicalLandRecord, error) {
	var l model.CanonicalLandRecord
	err := s.pool.QueryRow(ctx, pgFindLand, surveyNo).Scan(landDest(&l)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find land")
	}
	return &l, nil
}

func (s *PostgresStore) FindLandByIdentity(ctx context.Context, id model.LandIdentity) (*model.CanonicalLandRecord, error) {
	id = id.Trimmed()
	var l model.CanonicalLandRecord
	err := s.pool.QueryRow(ctx, pgFindLandByIdentity,
		id.SurveyNo, id.MeasuringArea, id.Village, id.Hobli, id.Taluk, id.District,
	).Scan(landDest(&l)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find land by identity")
	}
	return &l, nil
}

func (s *PostgresStore) ImportIdentities(ctx context.Context, recs []model.CanonicalIdentityRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.Name, r.Number, r.DOB}
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "canonical_identity",
		Columns:      []string{"name", "number", "dob"},
		ConflictKeys: []string{"number"},
	}, rows)
	return n, eris.Wrap(err, "postgres: import identities")
}

func (s *PostgresStore) ImportTax(ctx context.Context, recs []model.CanonicalTaxRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.Name, r.Number, r.DOB}
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "canonical_tax",
		Columns:      []string{"name", "number", "dob"},
		ConflictKeys: []string{"number"},
	}, rows)
	return n, eris.Wrap(err, "postgres: import tax")
}

func (s *PostgresStore) ImportLand(ctx context.Context, recs []model.CanonicalLandRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i := range recs {
		rows[i] = landValues(&recs[i])
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "canonical_land",
		Columns:      landColumns,
		ConflictKeys: landKeyColumns,
	}, rows)
	return n, eris.Wrap(err, "postgres: import land")
}

// --- Results ---

var (
	pgGetResult       = resultSelectSQL() + ` WHERE submission_id = $1`
	pgLockResult      = resultSelectSQL() + ` WHERE submission_id = $1 FOR UPDATE`
	pgUpsertResultSQL = resultUpsertSQL(pgPlaceholder)
)

func (s *PostgresStore) GetResult(ctx context.Context, submissionID int64) (*model.ReconciliationResult, error) {
	r, err := scanResult(s.pool.QueryRow(ctx, pgGetResult, submissionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %d", submissionID)
	}
	return r, nil
}

func (s *PostgresStore) UpsertResult(ctx context.Context, submissionID int64, mutate MutateFunc) (*model.ReconciliationResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert result: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	r, err := scanResult(tx.QueryRow(ctx, pgLockResult, submissionID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		r = model.NewReconciliationResult(submissionID)
		r.ID = uuid.New().String()
		r.CreatedAt = s.now()
	case err != nil:
		return nil, eris.Wrapf(err, "postgres: upsert result: lock %d", submissionID)
	}

	if err := mutate(r); err != nil {
		return nil, err
	}
	r.SubmissionID = submissionID

	if _, err := tx.Exec(ctx, pgUpsertResultSQL, resultValues(r)...); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert result: write %d", submissionID)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: upsert result: commit tx")
	}
	return r, nil
}

const pgResultStats = `SELECT
	count(*),
	count(*) FILTER (WHERE status = 'Verified'),
	count(*) FILTER (WHERE status = 'Rejected'),
	count(*) FILTER (WHERE status NOT IN ('Verified', 'Rejected')),
	count(*) FILTER (WHERE verified_at >= $1),
	count(*) FILTER (WHERE verified_at IS NOT NULL AND risk_score >= $2),
	count(*) FILTER (WHERE verified_at IS NOT NULL AND risk_score >= $3 AND risk_score < $2),
	count(*) FILTER (WHERE verified_at IS NOT NULL AND risk_score < $3)
FROM reconciliation_results`

func (s *PostgresStore) ResultStats(ctx context.Context, since time.Time) (*ResultStats, error) {
	var st ResultStats
	err := s.pool.QueryRow(ctx, pgResultStats, since, model.HighRiskThreshold, model.MediumRiskThreshold).Scan(
		&st.Total, &st.Verified, &st.Rejected, &st.Pending,
		&st.Recent, &st.High, &st.Medium, &st.Low,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: result stats")
	}
	return &st, nil
}
