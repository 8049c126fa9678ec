package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"saveit/internal/apperrors"
	"saveit/internal/core"
)

type postgresSaveRepo struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *postgresSaveRepo) query() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const saveColumns = `id, user_id, shared_content_id, note, is_favorited, is_archived, last_viewed_at, created_at`

func (r *postgresSaveRepo) Create(ctx context.Context, save *core.UserContentSave) error {
	query := `
		INSERT INTO user_content_saves (` + saveColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err := r.query().ExecContext(ctx, query,
		save.ID, save.UserID, save.SharedContentID, save.Note, save.IsFavorited,
		save.IsArchived, save.LastViewedAt, save.CreatedAt,
	)
	return err
}

func (r *postgresSaveRepo) Get(ctx context.Context, id string) (*core.UserContentSave, error) {
	query := `SELECT ` + saveColumns + ` FROM user_content_saves WHERE id = $1`
	row := r.query().QueryRowContext(ctx, query, id)
	return scanSave(row)
}

func (r *postgresSaveRepo) GetByUserAndContent(ctx context.Context, userID, sharedContentID string) (*core.UserContentSave, error) {
	query := `SELECT ` + saveColumns + ` FROM user_content_saves WHERE user_id = $1 AND shared_content_id = $2`
	row := r.query().QueryRowContext(ctx, query, userID, sharedContentID)
	return scanSave(row)
}

func (r *postgresSaveRepo) ListByUser(ctx context.Context, userID string, opts ListOptions) ([]core.UserContentSave, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + saveColumns + ` FROM user_content_saves WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.query().QueryContext(ctx, query, userID, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSaveRows(rows)
}

func (r *postgresSaveRepo) ListByUserAndCategory(ctx context.Context, userID string, category core.ContentCategory) ([]core.UserContentSave, error) {
	query := `
		SELECT ` + saveColumnsPrefixed() + `
		FROM user_content_saves s
		JOIN shared_content sc ON sc.id = s.shared_content_id
		WHERE s.user_id = $1 AND sc.content_category = $2 AND sc.status = 'READY' AND s.is_archived = false
		ORDER BY s.created_at
	`
	rows, err := r.query().QueryContext(ctx, query, userID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSaveRows(rows)
}

func saveColumnsPrefixed() string {
	return "s.id, s.user_id, s.shared_content_id, s.note, s.is_favorited, s.is_archived, s.last_viewed_at, s.created_at"
}

// ListByUserJoined lists a user's saves joined to their SharedContent in one
// query, applying whichever of opts.Category/opts.Status/opts.IncludeArchived
// the caller set.
func (r *postgresSaveRepo) ListByUserJoined(ctx context.Context, userID string, opts ListOptions) ([]SaveWithContent, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	args := []interface{}{userID}
	filters := ""
	if opts.Category != nil {
		args = append(args, *opts.Category)
		filters += fmt.Sprintf(" AND sc.content_category = $%d", len(args))
	}
	if opts.Status != nil {
		args = append(args, *opts.Status)
		filters += fmt.Sprintf(" AND sc.status = $%d", len(args))
	}
	if !opts.IncludeArchived {
		filters += " AND s.is_archived = false"
	}
	args = append(args, limit, opts.Offset)

	query := fmt.Sprintf(`
		SELECT s.id, s.user_id, s.shared_content_id, s.note, s.is_favorited, s.is_archived, s.last_viewed_at, s.created_at,
		       sc.id, sc.url, sc.url_hash, sc.source_platform, sc.status, sc.content_category,
		       sc.title, sc.caption, sc.description, sc.thumbnail_ref, sc.duration_seconds, sc.content_text,
		       sc.topic_main, sc.subcategories, sc.locations, sc.entities, sc.intent,
		       sc.visual_description, sc.visual_tags, sc.embedding_id, sc.save_count, sc.last_error,
		       sc.created_at, sc.updated_at
		FROM user_content_saves s
		JOIN shared_content sc ON sc.id = s.shared_content_id
		WHERE s.user_id = $1 %s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d
	`, filters, len(args)-1, len(args))

	rows, err := r.query().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list saves joined: %w", err)
	}
	defer rows.Close()

	var out []SaveWithContent
	for rows.Next() {
		swc, err := scanSaveWithContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *swc)
	}
	return out, rows.Err()
}

func scanSaveWithContent(rows *sql.Rows) (*SaveWithContent, error) {
	var swc SaveWithContent
	var category, intent sql.NullString
	var subcategories, locations, entities, visualTags pq.StringArray
	var embeddingID sql.NullString

	s := &swc.Save
	sc := &swc.Content
	err := rows.Scan(
		&s.ID, &s.UserID, &s.SharedContentID, &s.Note, &s.IsFavorited, &s.IsArchived, &s.LastViewedAt, &s.CreatedAt,
		&sc.ID, &sc.URL, &sc.URLHash, &sc.SourcePlatform, &sc.Status, &category,
		&sc.Title, &sc.Caption, &sc.Description, &sc.ThumbnailRef, &sc.DurationSecs, &sc.ContentText,
		&sc.TopicMain, &subcategories, &locations, &entities, &intent,
		&sc.VisualDescription, &visualTags, &embeddingID, &sc.SaveCount, &sc.LastError,
		&sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan save with content: %w", err)
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

	return &swc, nil
}

// ListUserIDsByContent returns the distinct users who have saved
// sharedContentID.
func (r *postgresSaveRepo) ListUserIDsByContent(ctx context.Context, sharedContentID string) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM user_content_saves WHERE shared_content_id = $1`
	rows, err := r.query().QueryContext(ctx, query, sharedContentID)
	if err != nil {
		return nil, fmt.Errorf("list user ids by content: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		out = append(out, userID)
	}
	return out, rows.Err()
}

func (r *postgresSaveRepo) CountByUserAndCategory(ctx context.Context, userID string) (map[core.ContentCategory]int, error) {
	query := `
		SELECT sc.content_category, count(*)
		FROM user_content_saves s
		JOIN shared_content sc ON sc.id = s.shared_content_id
		WHERE s.user_id = $1 AND sc.status = 'READY' AND sc.content_category IS NOT NULL AND s.is_archived = false
		GROUP BY sc.content_category
	`
	rows, err := r.query().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[core.ContentCategory]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		out[core.ContentCategory(cat)] = n
	}
	return out, rows.Err()
}

func (r *postgresSaveRepo) Update(ctx context.Context, save *core.UserContentSave) error {
	query := `
		UPDATE user_content_saves SET
			note = $2, is_favorited = $3, is_archived = $4, last_viewed_at = $5
		WHERE id = $1
	`
	_, err := r.query().ExecContext(ctx, query, save.ID, save.Note, save.IsFavorited, save.IsArchived, save.LastViewedAt)
	return err
}

func (r *postgresSaveRepo) Delete(ctx context.Context, id string) error {
	_, err := r.query().ExecContext(ctx, `DELETE FROM user_content_saves WHERE id = $1`, id)
	return err
}

func scanSave(row *sql.Row) (*core.UserContentSave, error) {
	var s core.UserContentSave
	err := row.Scan(&s.ID, &s.UserID, &s.SharedContentID, &s.Note, &s.IsFavorited, &s.IsArchived, &s.LastViewedAt, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("save not found")
		}
		return nil, fmt.Errorf("scan user_content_save: %w", err)
	}
	return &s, nil
}

func scanSaveRows(rows *sql.Rows) ([]core.UserContentSave, error) {
	var out []core.UserContentSave
	for rows.Next() {
		var s core.UserContentSave
		if err := rows.Scan(&s.ID, &s.UserID, &s.SharedContentID, &s.Note, &s.IsFavorited, &s.IsArchived, &s.LastViewedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
