// Package postgres stores events and images in PostgreSQL through the pgx
// database/sql driver. The schema is managed by goose.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"schedule_bot/internal/idgen"
	"schedule_bot/internal/models"
	"schedule_bot/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db), nil
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUp(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// ownerClause appends the visibility condition for scope to args.
func ownerClause(scope models.Scope, args []any) (string, []any) {
	if scope.Kind == models.ScopeGroup {
		args = append(args, string(scope.Kind), scope.GroupID)
		return fmt.Sprintf("scope = $%d AND group_id = $%d", len(args)-1, len(args)), args
	}
	args = append(args, string(scope.Kind), scope.UserID)
	return fmt.Sprintf("scope = $%d AND created_by = $%d", len(args)-1, len(args)), args
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const eventColumns = "id, name, date, kind, created_by, group_id, scope, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (models.EventModel, error) {
	var (
		e     models.EventModel
		group sql.NullString
		kind  string
		scope string
	)
	if err := r.Scan(&e.ID, &e.Name, &e.Date, &kind, &e.CreatedBy, &group, &scope, &e.CreatedAt); err != nil {
		return e, err
	}
	e.Kind = models.Kind(kind)
	e.Scope = models.ScopeKind(scope)
	e.GroupID = group.String
	return e, nil
}

func (s *Store) FindEvents(ctx context.Context, f store.EventFilter) ([]models.EventModel, error) {
	where, args := ownerClause(f.Scope, nil)
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	q := "SELECT " + eventColumns + " FROM events WHERE " + where + " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.EventModel, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*models.EventModel, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = $1", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *models.EventModel) error {
	id, err := idgen.Generate()
	if err != nil {
		return err
	}
	createdAt := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		id, e.Name, e.Date, string(e.Kind), e.CreatedBy, nullable(e.GroupID), string(e.Scope), createdAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	e.ID = id
	e.CreatedAt = createdAt
	return nil
}

func (s *Store) SaveEvent(ctx context.Context, e *models.EventModel) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE events SET name = $2, date = $3, kind = $4 WHERE id = $1",
		e.ID, e.Name, e.Date, string(e.Kind))
	return affected(res, err)
}

func (s *Store) RemoveEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	return affected(res, err)
}

const imageColumns = "id, name, asset_id, asset_url, thumbnail_url, created_by, group_id, scope, created_at"

func scanImage(r rowScanner) (models.ImageModel, error) {
	var (
		m                       models.ImageModel
		assetID, url, thumbnail sql.NullString
		group                   sql.NullString
		scope                   string
	)
	if err := r.Scan(&m.ID, &m.Name, &assetID, &url, &thumbnail, &m.CreatedBy, &group, &scope, &m.CreatedAt); err != nil {
		return m, err
	}
	m.Scope = models.ScopeKind(scope)
	m.GroupID = group.String
	if assetID.Valid {
		m.Asset = models.Fulfilled{AssetID: assetID.String, URL: url.String, ThumbnailURL: thumbnail.String}
	} else {
		m.Asset = models.Pending{}
	}
	return m, nil
}

// assetColumns flattens the asset state. Pending maps to three NULLs.
func assetColumns(a models.Asset) (sql.NullString, sql.NullString, sql.NullString) {
	f, ok := a.(models.Fulfilled)
	if !ok {
		return sql.NullString{}, sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: f.AssetID, Valid: true},
		sql.NullString{String: f.URL, Valid: true},
		sql.NullString{String: f.ThumbnailURL, Valid: true}
}

func (s *Store) FindImages(ctx context.Context, f store.ImageFilter) ([]models.ImageModel, error) {
	where, args := ownerClause(f.Scope, nil)
	var b strings.Builder
	b.WriteString("SELECT " + imageColumns + " FROM images WHERE " + where)
	switch f.State {
	case store.PendingAsset:
		b.WriteString(" AND asset_id IS NULL")
	case store.FulfilledAsset:
		b.WriteString(" AND asset_id IS NOT NULL")
	}
	b.WriteString(" ORDER BY created_at, id")

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.ImageModel, 0)
	for rows.Next() {
		m, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *Store) GetImage(ctx context.Context, id string) (*models.ImageModel, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+imageColumns+" FROM images WHERE id = $1", id)
	m, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &m, nil
}

func (s *Store) CreateImage(ctx context.Context, m *models.ImageModel) error {
	id, err := idgen.Generate()
	if err != nil {
		return err
	}
	if m.Asset == nil {
		m.Asset = models.Pending{}
	}
	assetID, url, thumbnail := assetColumns(m.Asset)
	createdAt := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO images ("+imageColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		id, m.Name, assetID, url, thumbnail, m.CreatedBy, nullable(m.GroupID), string(m.Scope), createdAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	m.ID = id
	m.CreatedAt = createdAt
	return nil
}

func (s *Store) SaveImage(ctx context.Context, m *models.ImageModel) error {
	assetID, url, thumbnail := assetColumns(m.Asset)
	res, err := s.db.ExecContext(ctx,
		"UPDATE images SET name = $2, asset_id = $3, asset_url = $4, thumbnail_url = $5 WHERE id = $1",
		m.ID, m.Name, assetID, url, thumbnail)
	return affected(res, err)
}

func (s *Store) RemoveImage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM images WHERE id = $1", id)
	return affected(res, err)
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
