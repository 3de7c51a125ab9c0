package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/ocr"
)

// Schema creates the tables the SQL store needs. Callers run it once
// at startup; it is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS cards (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    job_title   TEXT NOT NULL DEFAULT '',
    company     TEXT NOT NULL DEFAULT '',
    email       TEXT NOT NULL DEFAULT '',
    phone       TEXT NOT NULL DEFAULT '',
    mobile      TEXT NOT NULL DEFAULT '',
    address     TEXT NOT NULL DEFAULT '',
    website     TEXT NOT NULL DEFAULT '',
    notes       TEXT NOT NULL DEFAULT '',
    image_path  TEXT NOT NULL DEFAULT '',
    tags        TEXT[] NOT NULL DEFAULT '{}',
    is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS ocr_results (
    id                 TEXT PRIMARY KEY,
    raw_text           TEXT NOT NULL DEFAULT '',
    confidence         DOUBLE PRECISION NOT NULL,
    image_width        INTEGER NOT NULL DEFAULT 0,
    image_height       INTEGER NOT NULL DEFAULT 0,
    processed_at       TIMESTAMPTZ NOT NULL,
    processing_time_ms BIGINT NOT NULL DEFAULT 0,
    engine             TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_cards_created_at ON cards (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ocr_results_processed_at ON ocr_results (processed_at DESC);
`

// SQL is a postgres-backed Store built on sqlx.
type SQL struct {
	db *sqlx.DB
}

// NewSQL wraps an open sqlx database handle.
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

// OpenSQL connects to postgres with the given DSN and applies the
// schema.
func OpenSQL(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errx.Wrap(errx.KindDataSource, err, "connect postgres")
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, errx.Wrap(errx.KindDataSource, err, "apply schema")
	}
	return &SQL{db: db}, nil
}

// Close releases the database handle.
func (s *SQL) Close() error { return s.db.Close() }

// cardRow mirrors the cards table. Tags use a postgres array column.
type cardRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	JobTitle   string         `db:"job_title"`
	Company    string         `db:"company"`
	Email      string         `db:"email"`
	Phone      string         `db:"phone"`
	Mobile     string         `db:"mobile"`
	Address    string         `db:"address"`
	Website    string         `db:"website"`
	Notes      string         `db:"notes"`
	ImagePath  string         `db:"image_path"`
	Tags       pq.StringArray `db:"tags"`
	IsFavorite bool           `db:"is_favorite"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  *time.Time     `db:"updated_at"`
}

func toRow(c card.BusinessCard) cardRow {
	return cardRow{
		ID:         c.ID,
		Name:       c.Name,
		JobTitle:   c.JobTitle,
		Company:    c.Company,
		Email:      c.Email,
		Phone:      c.Phone,
		Mobile:     c.Mobile,
		Address:    c.Address,
		Website:    c.Website,
		Notes:      c.Notes,
		ImagePath:  c.ImagePath,
		Tags:       pq.StringArray(c.Tags),
		IsFavorite: c.IsFavorite,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (r cardRow) toCard() card.BusinessCard {
	return card.BusinessCard{
		ID:         r.ID,
		Name:       r.Name,
		JobTitle:   r.JobTitle,
		Company:    r.Company,
		Email:      r.Email,
		Phone:      r.Phone,
		Mobile:     r.Mobile,
		Address:    r.Address,
		Website:    r.Website,
		Notes:      r.Notes,
		ImagePath:  r.ImagePath,
		Tags:       []string(r.Tags),
		IsFavorite: r.IsFavorite,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

const insertCard = `
INSERT INTO cards (id, name, job_title, company, email, phone, mobile,
                   address, website, notes, image_path, tags, is_favorite,
                   created_at, updated_at)
VALUES (:id, :name, :job_title, :company, :email, :phone, :mobile,
        :address, :website, :notes, :image_path, :tags, :is_favorite,
        :created_at, :updated_at)`

func (s *SQL) Save(ctx context.Context, c card.BusinessCard) error {
	if _, err := s.db.NamedExecContext(ctx, insertCard, toRow(c)); err != nil {
		return errx.Wrap(errx.KindDataSource, err, "insert card")
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, id string) (card.BusinessCard, error) {
	var row cardRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM cards WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return card.BusinessCard{}, ErrNotFound
	}
	if err != nil {
		return card.BusinessCard{}, errx.Wrap(errx.KindDataSource, err, "select card")
	}
	return row.toCard(), nil
}

const updateCard = `
UPDATE cards SET name = :name, job_title = :job_title, company = :company,
                 email = :email, phone = :phone, mobile = :mobile,
                 address = :address, website = :website, notes = :notes,
                 image_path = :image_path, tags = :tags,
                 is_favorite = :is_favorite, updated_at = :updated_at
WHERE id = :id`

func (s *SQL) Update(ctx context.Context, c card.BusinessCard) error {
	res, err := s.db.NamedExecContext(ctx, updateCard, toRow(c))
	if err != nil {
		return errx.Wrap(errx.KindDataSource, err, "update card")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return errx.Wrap(errx.KindDataSource, err, "delete card")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) Search(ctx context.Context, q Query) ([]card.BusinessCard, error) {
	var (
		clauses []string
		args    []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.Text != "" {
		p := arg("%" + strings.ToLower(q.Text) + "%")
		clauses = append(clauses,
			"(LOWER(name) LIKE "+p+" OR LOWER(company) LIKE "+p+" OR LOWER(email) LIKE "+p+")")
	}
	if q.Tag != "" {
		clauses = append(clauses, arg(q.Tag)+" = ANY(tags)")
	}
	if q.FavoritesOnly {
		clauses = append(clauses, "is_favorite")
	}

	query := `SELECT * FROM cards`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if q.Limit > 0 {
		query += " LIMIT " + arg(q.Limit)
	}
	if q.Offset > 0 {
		query += " OFFSET " + arg(q.Offset)
	}

	var rows []cardRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errx.Wrap(errx.KindDataSource, err, "search cards")
	}
	out := make([]card.BusinessCard, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCard())
	}
	return out, nil
}

func (s *SQL) List(ctx context.Context, limit, offset int) ([]card.BusinessCard, error) {
	return s.Search(ctx, Query{Limit: limit, Offset: offset})
}

// resultRow mirrors the ocr_results table. Image bytes are not
// persisted; history keeps text and metadata only.
type resultRow struct {
	ID               string    `db:"id"`
	RawText          string    `db:"raw_text"`
	Confidence       float64   `db:"confidence"`
	ImageWidth       int       `db:"image_width"`
	ImageHeight      int       `db:"image_height"`
	ProcessedAt      time.Time `db:"processed_at"`
	ProcessingTimeMS int64     `db:"processing_time_ms"`
	Engine           string    `db:"engine"`
}

const insertResult = `
INSERT INTO ocr_results (id, raw_text, confidence, image_width, image_height,
                         processed_at, processing_time_ms, engine)
VALUES (:id, :raw_text, :confidence, :image_width, :image_height,
        :processed_at, :processing_time_ms, :engine)
ON CONFLICT (id) DO NOTHING`

func (s *SQL) SaveResult(ctx context.Context, r ocr.Result) error {
	row := resultRow{
		ID:               r.ID,
		RawText:          r.RawText,
		Confidence:       r.Confidence,
		ImageWidth:       r.ImageWidth,
		ImageHeight:      r.ImageHeight,
		ProcessedAt:      r.ProcessedAt,
		ProcessingTimeMS: r.ProcessingTime.Milliseconds(),
		Engine:           r.Engine,
	}
	if _, err := s.db.NamedExecContext(ctx, insertResult, row); err != nil {
		return errx.Wrap(errx.KindDataSource, err, "insert result")
	}
	return nil
}

func (s *SQL) History(ctx context.Context, limit, offset int) ([]ocr.Result, error) {
	query := `SELECT * FROM ocr_results ORDER BY processed_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	var rows []resultRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errx.Wrap(errx.KindDataSource, err, "select history")
	}
	out := make([]ocr.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, ocr.Result{
			ID:             row.ID,
			RawText:        row.RawText,
			Confidence:     row.Confidence,
			ImageWidth:     row.ImageWidth,
			ImageHeight:    row.ImageHeight,
			ProcessedAt:    row.ProcessedAt,
			ProcessingTime: time.Duration(row.ProcessingTimeMS) * time.Millisecond,
			Engine:         row.Engine,
		})
	}
	return out, nil
}

func (s *SQL) DeleteResult(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ocr_results WHERE id = $1`, id)
	if err != nil {
		return errx.Wrap(errx.KindDataSource, err, "delete result")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) CleanupOldResults(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, `DELETE FROM ocr_results WHERE processed_at < $1`, cutoff)
	if err != nil {
		return 0, errx.Wrap(errx.KindDataSource, err, "cleanup results")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(errx.KindDataSource, err, "cleanup results")
	}
	return int(n), nil
}

