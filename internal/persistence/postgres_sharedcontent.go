package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"saveit/internal/apperrors"
	"saveit/internal/core"
)

type postgresSharedContentRepo struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *postgresSharedContentRepo) query() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const sharedContentColumns = `
	id, url, url_hash, source_platform, status, content_category,
	title, caption, description, thumbnail_ref, duration_seconds, content_text,
	topic_main, subcategories, locations, entities, intent,
	visual_description, visual_tags, embedding_id, save_count, last_error,
	created_at, updated_at
`

func (r *postgresSharedContentRepo) Create(ctx context.Context, sc *core.SharedContent) error {
	query := `
		INSERT INTO shared_content (` + sharedContentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
	`
	_, err := r.query().ExecContext(ctx, query,
		sc.ID, sc.URL, sc.URLHash, sc.SourcePlatform, sc.Status, categoryPtrToStr(sc.ContentCategory),
		sc.Title, sc.Caption, sc.Description, sc.ThumbnailRef, sc.DurationSecs, sc.ContentText,
		sc.TopicMain, pq.Array(sc.Subcategories), pq.Array(sc.Locations), pq.Array(sc.Entities), intentPtrToStr(sc.Intent),
		sc.VisualDescription, pq.Array(sc.VisualTags), sc.EmbeddingID, sc.SaveCount, sc.LastError,
		sc.CreatedAt, sc.UpdatedAt,
	)
	return err
}

func (r *postgresSharedContentRepo) Get(ctx context.Context, id string) (*core.SharedContent, error) {
	query := `SELECT ` + sharedContentColumns + ` FROM shared_content WHERE id = $1`
	row := r.query().QueryRowContext(ctx, query, id)
	return scanSharedContent(row)
}

func (r *postgresSharedContentRepo) GetByURLHash(ctx context.Context, urlHash string) (*core.SharedContent, error) {
	query := `SELECT ` + sharedContentColumns + ` FROM shared_content WHERE url_hash = $1`
	row := r.query().QueryRowContext(ctx, query, urlHash)
	return scanSharedContent(row)
}

// GetByURLHashForUpdate locks the row, used by the save flow to serialize
// concurrent writers.
func (r *postgresSharedContentRepo) GetByURLHashForUpdate(ctx context.Context, urlHash string) (*core.SharedContent, error) {
	query := `SELECT ` + sharedContentColumns + ` FROM shared_content WHERE url_hash = $1 FOR UPDATE`
	row := r.query().QueryRowContext(ctx, query, urlHash)
	return scanSharedContent(row)
}

func (r *postgresSharedContentRepo) Update(ctx context.Context, sc *core.SharedContent) error {
	query := `
		UPDATE shared_content SET
			status = $2, content_category = $3,
			title = $4, caption = $5, description = $6, thumbnail_ref = $7, duration_seconds = $8,
			content_text = $9, topic_main = $10, subcategories = $11, locations = $12, entities = $13,
			intent = $14, visual_description = $15, visual_tags = $16, embedding_id = $17,
			save_count = $18, last_error = $19, updated_at = now()
		WHERE id = $1
	`
	_, err := r.query().ExecContext(ctx, query,
		sc.ID, sc.Status, categoryPtrToStr(sc.ContentCategory),
		sc.Title, sc.Caption, sc.Description, sc.ThumbnailRef, sc.DurationSecs,
		sc.ContentText, sc.TopicMain, pq.Array(sc.Subcategories), pq.Array(sc.Locations), pq.Array(sc.Entities),
		intentPtrToStr(sc.Intent), sc.VisualDescription, pq.Array(sc.VisualTags), sc.EmbeddingID,
		sc.SaveCount, sc.LastError,
	)
	return err
}

func (r *postgresSharedContentRepo) IncrementSaveCount(ctx context.Context, id string) error {
	query := `UPDATE shared_content SET save_count = save_count + 1, updated_at = now() WHERE id = $1`
	_, err := r.query().ExecContext(ctx, query, id)
	return err
}

func (r *postgresSharedContentRepo) DecrementSaveCount(ctx context.Context, id string) error {
	query := `UPDATE shared_content SET save_count = GREATEST(save_count - 1, 0), updated_at = now() WHERE id = $1`
	_, err := r.query().ExecContext(ctx, query, id)
	return err
}

func (r *postgresSharedContentRepo) ListByStatus(ctx context.Context, status core.ItemStatus, limit int) ([]core.SharedContent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + sharedContentColumns + ` FROM shared_content WHERE status = $1 ORDER BY created_at LIMIT $2`
	rows, err := r.query().QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.SharedContent
	for rows.Next() {
		sc, err := scanSharedContentRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSharedContent(row *sql.Row) (*core.SharedContent, error) {
	sc, err := scanSharedContentCommon(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("shared content not found")
	}
	return sc, err
}

func scanSharedContentRows(rows *sql.Rows) (*core.SharedContent, error) {
	return scanSharedContentCommon(rows)
}

func scanSharedContentCommon(s rowScanner) (*core.SharedContent, error) {
	var sc core.SharedContent
	var category, intent sql.NullString
	var subcategories, locations, entities, visualTags pq.StringArray
	var embeddingID sql.NullString

	err := s.Scan(
		&sc.ID, &sc.URL, &sc.URLHash, &sc.SourcePlatform, &sc.Status, &category,
		&sc.Title, &sc.Caption, &sc.Description, &sc.ThumbnailRef, &sc.DurationSecs, &sc.ContentText,
		&sc.TopicMain, &subcategories, &locations, &entities, &intent,
		&sc.VisualDescription, &visualTags, &embeddingID, &sc.SaveCount, &sc.LastError,
		&sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan shared_content: %w", err)
	}

	if category.Valid {
		c := core.ContentCategory(category.String)
		sc.ContentCategory = &c
	}
	if intent.Valid {
		i := core.IntentType(intent.String)
		sc.Intent = &i
	}
	if embeddingID.Valid {
		sc.EmbeddingID = &embeddingID.String
	}
	sc.Subcategories = []string(subcategories)
	sc.Locations = []string(locations)
	sc.Entities = []string(entities)
	sc.VisualTags = []string(visualTags)

	return &sc, nil
}

func categoryPtrToStr(c *core.ContentCategory) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func intentPtrToStr(i *core.IntentType) *string {
	if i == nil {
		return nil
	}
	s := string(*i)
	return &s
}
