package images

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/imgcrop/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	migrationPath = "migrations"

	insertImageQuery = "INSERT INTO images (doc, created_at) VALUES ($1, $2) RETURNING id"
	allImagesQuery   = "SELECT id, doc, created_at FROM images ORDER BY created_at DESC"
	oneByIDQuery     = "SELECT id, doc, created_at FROM images WHERE id = $1"
	deleteByIDQuery  = "DELETE FROM images WHERE id = $1"
)

// Postgres keeps each record as a JSONB document next to its id and creation time.
type Postgres struct {
	db *sql.DB
}

var _ model.ImagesRepository = (*Postgres)(nil)

// NewPostgres wraps an open database. Migrations are not applied.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres connects to dsn and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	const op = "images.OpenPostgres"

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewPostgres(db), nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	const op = "images.migrations"

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := goose.UpContext(ctx, db, migrationPath); err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			log.Debug().Msg("no migrations to apply")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info().Msg("database migrations applied")
	return nil
}

type imageRow struct {
	ID        string
	Doc       []byte
	CreatedAt time.Time
}

func (r imageRow) toDomain() (model.ImageRecord, error) {
	doc := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(r.Doc))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return model.ImageRecord{}, &model.ValidationError{Field: "document", Err: err}
	}
	doc[fieldID] = r.ID
	doc[fieldCreatedAt] = r.CreatedAt
	return DecodeDocument(doc)
}

// Save inserts rec and returns it with the assigned id.
func (p *Postgres) Save(ctx context.Context, rec model.ImageRecord) (model.ImageRecord, error) {
	const op = "images.Postgres.Save"

	if err := checkSave(rec); err != nil {
		return model.ImageRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(EncodeDocument(rec))
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	err = p.db.QueryRowContext(ctx, insertImageQuery, string(doc), rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// All returns every record, newest first.
func (p *Postgres) All(ctx context.Context) ([]model.ImageRecord, error) {
	const op = "images.Postgres.All"

	rows, err := p.db.QueryContext(ctx, allImagesQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := []model.ImageRecord{}
	for rows.Next() {
		var row imageRow
		if err := rows.Scan(&row.ID, &row.Doc, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rec, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: record %s: %w", op, row.ID, err)
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetOne returns the record with id or model.ErrNotFound.
func (p *Postgres) GetOne(ctx context.Context, id string) (model.ImageRecord, error) {
	const op = "images.Postgres.GetOne"

	if _, err := uuid.Parse(id); err != nil {
		return model.ImageRecord{}, model.ErrNotFound
	}

	var row imageRow
	err := p.db.QueryRowContext(ctx, oneByIDQuery, id).Scan(&row.ID, &row.Doc, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ImageRecord{}, model.ErrNotFound
	}
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return row.toDomain()
}

// Delete removes exactly the record with id.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	const op = "images.Postgres.Delete"

	if _, err := uuid.Parse(id); err != nil {
		return model.ErrNotFound
	}

	res, err := p.db.ExecContext(ctx, deleteByIDQuery, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (p *Postgres) Close(context.Context) error {
	return p.db.Close()
}
