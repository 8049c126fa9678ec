package core

import "time"

// SourcePlatform identifies where a saved URL originated.
type SourcePlatform string

const (
	PlatformInstagram SourcePlatform = "instagram"
	PlatformYouTube   SourcePlatform = "youtube"
	PlatformUnknown   SourcePlatform = "unknown"
)

// Valid reports whether p is one of the recognized platforms.
func (p SourcePlatform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformYouTube, PlatformUnknown:
		return true
	}
	return false
}

// ItemStatus is the SharedContent processing state machine.
type ItemStatus string

const (
	StatusPending    ItemStatus = "PENDING"
	StatusProcessing ItemStatus = "PROCESSING"
	StatusReady      ItemStatus = "READY"
	StatusFailed     ItemStatus = "FAILED"
)

// ContentCategory is the closed set of categories assigned during analysis.
// Once a SharedContent reaches READY its category is immutable.
type ContentCategory string

const (
	CategoryTravel        ContentCategory = "Travel"
	CategoryFood          ContentCategory = "Food"
	CategoryLearning      ContentCategory = "Learning"
	CategoryCareer        ContentCategory = "Career"
	CategoryFitness       ContentCategory = "Fitness"
	CategoryEntertainment ContentCategory = "Entertainment"
	CategoryShopping      ContentCategory = "Shopping"
	CategoryTech          ContentCategory = "Tech"
	CategoryLifestyle     ContentCategory = "Lifestyle"
	CategoryMisc          ContentCategory = "Misc"
)

// AllCategories lists the closed category set in a stable order.
var AllCategories = []ContentCategory{
	CategoryTravel, CategoryFood, CategoryLearning, CategoryCareer,
	CategoryFitness, CategoryEntertainment, CategoryShopping, CategoryTech,
	CategoryLifestyle, CategoryMisc,
}

// Valid reports whether c is one of AllCategories.
func (c ContentCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IntentType tags the inferred purpose behind a saved item.
type IntentType string

const (
	IntentInspiration IntentType = "inspiration"
	IntentHowTo       IntentType = "how_to"
	IntentReference   IntentType = "reference"
	IntentEntertain   IntentType = "entertain"
	IntentMisc        IntentType = "misc"
)

func (i IntentType) Valid() bool {
	switch i {
	case IntentInspiration, IntentHowTo, IntentReference, IntentEntertain, IntentMisc:
		return true
	}
	return false
}

// JobStatus is the lifecycle of a ProcessingJob audit row.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// User is a registered account.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	CredentialHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// SharedContent is the canonical, deduplicated record for one unique URL,
// shared across every user who saves it.
type SharedContent struct {
	ID              string           `json:"id"`
	URL             string           `json:"url"`
	URLHash         string           `json:"url_hash"`
	SourcePlatform  SourcePlatform   `json:"source_platform"`
	Status          ItemStatus       `json:"status"`
	ContentCategory *ContentCategory `json:"content_category,omitempty"`

	Title             string   `json:"title,omitempty"`
	Caption           string   `json:"caption,omitempty"`
	Description       string   `json:"description,omitempty"`
	ThumbnailRef      string   `json:"thumbnail_ref,omitempty"`
	DurationSecs      int      `json:"duration_seconds,omitempty"`
	ContentText       string   `json:"content_text,omitempty"`
	TopicMain         string   `json:"topic_main,omitempty"`
	Subcategories     []string `json:"subcategories,omitempty"`
	Locations         []string `json:"locations,omitempty"`
	Entities          []string `json:"entities,omitempty"`
	Intent            *IntentType `json:"intent,omitempty"`
	VisualDescription string   `json:"visual_description,omitempty"`
	VisualTags        []string `json:"visual_tags,omitempty"`

	EmbeddingID *string `json:"embedding_id,omitempty"`
	SaveCount   int     `json:"save_count"`

	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserContentSave is one user's private pointer to a SharedContent, plus
// annotations. Unique per (UserID, SharedContentID).
type UserContentSave struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	SharedContentID string     `json:"shared_content_id"`
	Note            string     `json:"note,omitempty"`
	IsFavorited     bool       `json:"is_favorited"`
	IsArchived      bool       `json:"is_archived"`
	LastViewedAt    *time.Time `json:"last_viewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Cluster is a per-user, per-category group of similar saves with an
// AI-generated (or rule-based fallback) label.
type Cluster struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	ContentCategory ContentCategory `json:"content_category"`
	Label           string          `json:"label"`
	Description     string          `json:"description"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ClusterMembership links a Cluster to a UserContentSave.
type ClusterMembership struct {
	ClusterID string `json:"cluster_id"`
	SaveID    string `json:"save_id"`
}

// ProcessingJob is an audit row for pipeline work. The queue, not this row,
// is authoritative for scheduling.
type ProcessingJob struct {
	ID              string         `json:"id"`
	SharedContentID string         `json:"shared_content_id"`
	JobType         string         `json:"job_type"`
	Status          JobStatus      `json:"status"`
	Error           string         `json:"error,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DedupeStrings preserves insertion order while dropping duplicates and
// blanks, used for subcategories/locations/entities/visual_tags.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
