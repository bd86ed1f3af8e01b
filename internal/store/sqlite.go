package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/docverify/reconcile-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One writer at a time keeps the read-modify-write in UpsertResult serial.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

var sqliteMigration = `
CREATE TABLE IF NOT EXISTS extracted_records (
	submission_id      INTEGER PRIMARY KEY,
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
	created_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS canonical_identity (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	number     TEXT NOT NULL UNIQUE,
	dob        DATE NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS canonical_tax (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	number     TEXT NOT NULL UNIQUE,
	dob        DATE,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS canonical_land (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	survey_no          TEXT,
	measuring_area     TEXT,
	village            TEXT,
	hobli              TEXT,
	taluk              TEXT,
	district           TEXT,
	latitude           REAL,
	longitude          REAL,
	owner_name         TEXT,
	extent             TEXT,
	land_type          TEXT,
	ownership_type     TEXT,
	is_main_owner      BOOLEAN NOT NULL DEFAULT 0,
	is_govt_restricted BOOLEAN NOT NULL DEFAULT 0,
	is_court_stay      BOOLEAN NOT NULL DEFAULT 0,
	is_alienated       BOOLEAN NOT NULL DEFAULT 0,
	any_transaction    BOOLEAN NOT NULL DEFAULT 0,
	remarks            TEXT,
	created_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_canonical_land_survey_no ON canonical_land(survey_no);

CREATE TABLE IF NOT EXISTS reconciliation_results (
	id            TEXT PRIMARY KEY,
	submission_id INTEGER NOT NULL UNIQUE,
` + resultColumnsDDL("BOOLEAN") + `	overall_match    BOOLEAN NOT NULL DEFAULT 0,
	match_percentage REAL NOT NULL DEFAULT 0,
	risk_score       REAL NOT NULL DEFAULT 0,
	risk_tier        TEXT NOT NULL DEFAULT 'Low',
	status           TEXT NOT NULL DEFAULT 'Pending',
	verified_at      DATETIME,
	created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reconciliation_results_status ON reconciliation_results(status);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Extracted records ---

var sqliteGetExtracted = "SELECT " + strings.Join(extractedColumns, ", ") + ", created_at FROM extracted_records WHERE submission_id = ?"

func (s *SQLiteStore) GetExtracted(ctx context.Context, submissionID int64) (*model.ExtractedRecord, error) {
	var r model.ExtractedRecord
	err := s.db.QueryRowContext(ctx, sqliteGetExtracted, submissionID).Scan(extractedDest(&r)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get extracted %d", submissionID)
	}
	return &r, nil
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]int64, error) {
	query := `SELECT e.submission_id FROM extracted_records e`
	if filter.OnlyPending {
		query += ` LEFT JOIN reconciliation_results r ON r.submission_id = e.submission_id WHERE r.id IS NULL OR r.status = 'Pending'`
	}
	query += ` ORDER BY e.submission_id`

	var args []any
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions")
	}
	defer rows.Close() //nolint:errcheck

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: list submissions rows")
}

var sqliteSaveExtracted = func() string {
	cols := append(append([]string{}, extractedColumns...), "created_at")
	ph := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	var sets []string
	for _, c := range extractedColumns[1:] {
		sets = append(sets, c+" = excluded."+c)
	}
	return "INSERT INTO extracted_records (" + strings.Join(cols, ", ") + ") VALUES (" + ph +
		") ON CONFLICT (submission_id) DO UPDATE SET " + strings.Join(sets, ", ")
}()

func (s *SQLiteStore) SaveExtracted(ctx context.Context, recs []model.ExtractedRecord) (int64, error) {
	now := s.now()
	n, err := s.inTx(ctx, "save extracted", len(recs), func(tx *sql.Tx, i int) error {
		_, err := tx.ExecContext(ctx, sqliteSaveExtracted, append(extractedValues(&recs[i]), now)...)
		return err
	})
	return n, err
}

// inTx runs fn for each of n records inside one transaction.
func (s *SQLiteStore) inTx(ctx context.Context, action string, n int, fn func(tx *sql.Tx, i int) error) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: %s: begin tx", action)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := 0; i < n; i++ {
		if err := fn(tx, i); err != nil {
			return 0, eris.Wrapf(err, "sqlite: %s: row %d", action, i)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: %s: commit tx", action)
	}
	return int64(n), nil
}

// --- Canonical records ---

const (
	sqliteFindIdentity = `SELECT id, name, number, dob, created_at FROM canonical_identity WHERE lower(trim(number)) = lower(trim(?)) ORDER BY id LIMIT 1`
	sqliteFindTax      = `SELECT id, name, number, dob, created_at FROM canonical_tax WHERE lower(trim(number)) = lower(trim(?)) ORDER BY id LIMIT 1`
)

var (
	sqliteFindLand           = landSelect + ` WHERE lower(trim(survey_no)) = lower(trim(?)) ORDER BY id LIMIT 1`
	sqliteFindLandByIdentity = landSelect + ` WHERE trim(survey_no) = ? AND trim(measuring_area) = ? AND trim(village) = ? AND trim(hobli) = ? AND trim(taluk) = ? AND trim(district) = ? ORDER BY id LIMIT 1`
	sqliteFindLandID         = `SELECT id FROM canonical_land WHERE survey_no IS ? AND measuring_area IS ? AND village IS ? AND hobli IS ? AND taluk IS ? AND district IS ?`
	sqliteInsertLand         = `INSERT INTO canonical_land (` + strings.Join(landColumns, ", ") + `, created_at) VALUES (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(landColumns)+1), ", ") + `)`
	sqliteUpdateLand = `UPDATE canonical_land SET ` + strings.Join(landColumns, " = ?, ") + ` = ? WHERE id = ?`
)

func (s *SQLiteStore) FindIdentity(ctx context.Context, number string) (*model.CanonicalIdentityRecord, error) {
	var r model.CanonicalIdentityRecord
	err := s.db.QueryRowContext(ctx, sqliteFindIdentity, number).Scan(&r.ID, &r.Name, &r.Number, &r.DOB, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find identity")
	}
	return &r, nil
}

func (s *SQLiteStore) FindTax(ctx context.Context, number string) (*model.CanonicalTaxRecord, error) {
	var r model.CanonicalTaxRecord
	err := s.db.QueryRowContext(ctx, sqliteFindTax, number).Scan(&r.ID, &r.Name, &r.Number, &r.DOB, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find tax")
	}
	return &r, nil
}

func (s *SQLiteStore) FindLand(ctx context.Context, surveyNo string) (*model.CanonicalLandRecord, error) {
	var l model.CanonicalLandRecord
	err := s.db.QueryRowContext(ctx, sqliteFindLand, surveyNo).Scan(landDest(&l)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find land")
	}
	return &l, nil
}

func (s *SQLiteStore) FindLandByIdentity(ctx context.Context, id model.LandIdentity) (*model.CanonicalLandRecord, error) {
	id = id.Trimmed()
	var l model.CanonicalLandRecord
	err := s.db.QueryRowContext(ctx, sqliteFindLandByIdentity,
		id.SurveyNo, id.MeasuringArea, id.Village, id.Hobli, id.Taluk, id.District,
	).Scan(landDest(&l)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find land by identity")
	}
	return &l, nil
}

func (s *SQLiteStore) ImportIdentities(ctx context.Context, recs []model.CanonicalIdentityRecord) (int64, error) {
	now := s.now()
	return s.inTx(ctx, "import identities", len(recs), func(tx *sql.Tx, i int) error {
		r := recs[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO canonical_identity (name, number, dob, created_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (number) DO UPDATE SET name = excluded.name, dob = excluded.dob`,
			r.Name, r.Number, r.DOB, now,
		)
		return err
	})
}

func (s *SQLiteStore) ImportTax(ctx context.Context, recs []model.CanonicalTaxRecord) (int64, error) {
	now := s.now()
	return s.inTx(ctx, "import tax", len(recs), func(tx *sql.Tx, i int) error {
		r := recs[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO canonical_tax (name, number, dob, created_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (number) DO UPDATE SET name = excluded.name, dob = excluded.dob`,
			r.Name, r.Number, r.DOB, now,
		)
		return err
	})
}

// ImportLand matches existing parcels on the six identity columns with
// NULL-safe equality, since SQLite unique constraints treat NULLs as distinct.
func (s *SQLiteStore) ImportLand(ctx context.Context, recs []model.CanonicalLandRecord) (int64, error) {
	now := s.now()
	return s.inTx(ctx, "import land", len(recs), func(tx *sql.Tx, i int) error {
		vals := landValues(&recs[i])
		var id int64
		err := tx.QueryRowContext(ctx, sqliteFindLandID, vals[:len(landKeyColumns)]...).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, sqliteInsertLand, append(vals, now)...)
		case err == nil:
			_, err = tx.ExecContext(ctx, sqliteUpdateLand, append(vals, id)...)
		}
		return err
	})
}

// --- Results ---

var (
	sqliteGetResult    = resultSelectSQL() + ` WHERE submission_id = ?`
	sqliteUpsertResult = resultUpsertSQL(sqlitePlaceholder)
)

func (s *SQLiteStore) GetResult(ctx context.Context, submissionID int64) (*model.ReconciliationResult, error) {
	r, err := scanResult(s.db.QueryRowContext(ctx, sqliteGetResult, submissionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %d", submissionID)
	}
	return r, nil
}

func (s *SQLiteStore) UpsertResult(ctx context.Context, submissionID int64, mutate MutateFunc) (*model.ReconciliationResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert result: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	r, err := scanResult(tx.QueryRowContext(ctx, sqliteGetResult, submissionID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		r = model.NewReconciliationResult(submissionID)
		r.ID = uuid.New().String()
		r.CreatedAt = s.now()
	case err != nil:
		return nil, eris.Wrapf(err, "sqlite: upsert result: read %d", submissionID)
	}

	if err := mutate(r); err != nil {
		return nil, err
	}
	r.SubmissionID = submissionID

	if _, err := tx.ExecContext(ctx, sqliteUpsertResult, resultValues(r)...); err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert result: write %d", submissionID)
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert result: commit tx")
	}
	return r, nil
}

// ResultStats tallies in Go; SQLite stores timestamps as text and a
// lexical comparison against since is not reliable.
func (s *SQLiteStore) ResultStats(ctx context.Context, since time.Time) (*ResultStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, risk_score, verified_at FROM reconciliation_results`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: result stats")
	}
	defer rows.Close() //nolint:errcheck

	var st ResultStats
	for rows.Next() {
		var (
			status     string
			risk       float64
			verifiedAt *time.Time
		)
		if err := rows.Scan(&status, &risk, &verifiedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result stats")
		}
		st.add(model.Status(status), risk, verifiedAt, since)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: result stats rows")
	}
	return &st, nil
}
