// Package saveservice normalizes incoming URLs, detects their source
// platform, and performs the dedup-and-save transaction: reuse existing
// SharedContent for a URL already seen, or create a new one.
package saveservice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"saveit/internal/apperrors"
	"saveit/internal/core"
	"saveit/internal/persistence"
)

// trackingParams lists query parameters stripped during normalization
// because they vary per-share without changing the underlying content.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"ref":          true,
	"fbclid":       true,
	"gclid":        true,
	"mc_cid":       true,
	"mc_eid":       true,
}

// NormalizeURL lowercases the host, strips "www.", forces https, removes
// tracking query parameters, and drops the fragment and trailing slash, so
// that equivalent shares of the same content hash identically.
func NormalizeURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL missing host")
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")

	query := parsed.Query()
	for param := range query {
		if trackingParams[param] {
			query.Del(param)
		}
	}

	normalized := url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     strings.TrimSuffix(parsed.Path, "/"),
		RawQuery: query.Encode(),
	}
	return normalized.String(), nil
}

// URLHash returns the SHA-256 hex digest of the normalized URL, used as the
// dedup key in shared_content.url_hash.
func URLHash(normalizedURL string) string {
	sum := sha256.Sum256([]byte(normalizedURL))
	return hex.EncodeToString(sum[:])
}

// DetectPlatform infers the source platform from the URL's host.
func DetectPlatform(normalizedURL string) core.SourcePlatform {
	parsed, err := url.Parse(normalizedURL)
	if err != nil {
		return core.PlatformUnknown
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	switch {
	case strings.Contains(host, "instagram.com"):
		return core.PlatformInstagram
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return core.PlatformYouTube
	default:
		return core.PlatformUnknown
	}
}

// Result is returned by Save, reporting whether the pipeline should be
// (re-)enqueued for this content.
type Result struct {
	Save            *core.UserContentSave
	Content         *core.SharedContent
	IsNewContent    bool
	NeedsProcessing bool
}

// Service saves a raw URL on behalf of a user, deduplicating by normalized
// URL across all users.
type Service struct {
	db persistence.Database
}

func New(db persistence.Database) *Service {
	return &Service{db: db}
}

// Save normalizes rawURL, then either attaches a new UserContentSave to an
// existing SharedContent row or creates both. It retries once on a
// unique_violation raised by a concurrent insert racing on url_hash.
func (s *Service) Save(ctx context.Context, userID, rawURL, note string) (*Result, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	hash := URLHash(normalized)

	result, err := s.trySave(ctx, userID, normalized, hash, note)
	if err != nil && isUniqueViolation(err) {
		// Another request created the row between our lookup and insert;
		// retry now that it exists.
		result, err = s.trySave(ctx, userID, normalized, hash, note)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) trySave(ctx context.Context, userID, normalizedURL, hash, note string) (*Result, error) {
	var result Result

	err := s.db.WithAdvisoryLock(ctx, "save:"+hash, func(tx persistence.Transaction) error {
		existing, err := tx.SharedContent().GetByURLHashForUpdate(ctx, hash)
		if err != nil && !apperrors.Is(err, apperrors.KindNotFound) {
			return fmt.Errorf("lookup shared content: %w", err)
		}

		if existing != nil {
			if _, err := tx.Saves().GetByUserAndContent(ctx, userID, existing.ID); err == nil {
				return apperrors.Conflict("content already saved by user")
			} else if !apperrors.Is(err, apperrors.KindNotFound) {
				return fmt.Errorf("lookup existing save: %w", err)
			}

			save := &core.UserContentSave{
				ID:              uuid.NewString(),
				UserID:          userID,
				SharedContentID: existing.ID,
				Note:            note,
				CreatedAt:       time.Now().UTC(),
			}
			if err := tx.Saves().Create(ctx, save); err != nil {
				return fmt.Errorf("create save: %w", err)
			}
			if err := tx.SharedContent().IncrementSaveCount(ctx, existing.ID); err != nil {
				return fmt.Errorf("increment save count: %w", err)
			}

			result = Result{Save: save, Content: existing, IsNewContent: false, NeedsProcessing: false}
			return nil
		}

		now := time.Now().UTC()
		content := &core.SharedContent{
			ID:             uuid.NewString(),
			URL:            normalizedURL,
			URLHash:        hash,
			SourcePlatform: DetectPlatform(normalizedURL),
			Status:         core.StatusPending,
			SaveCount:      1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.SharedContent().Create(ctx, content); err != nil {
			return fmt.Errorf("create shared content: %w", err)
		}

		save := &core.UserContentSave{
			ID:              uuid.NewString(),
			UserID:          userID,
			SharedContentID: content.ID,
			Note:            note,
			CreatedAt:       now,
		}
		if err := tx.Saves().Create(ctx, save); err != nil {
			return fmt.Errorf("create save: %w", err)
		}

		result = Result{Save: save, Content: content, IsNewContent: true, NeedsProcessing: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := asPQError(err)
	return ok && pqErr.Code == "23505"
}

func asPQError(err error) (*pq.Error, bool) {
	for err != nil {
		if pe, ok := err.(*pq.Error); ok {
			return pe, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
