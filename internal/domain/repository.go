package domain

import (
	"context"
	"time"
)

// VisionInvoker defines the interface for one bounded vision-model call.
// Implementations must honor ctx cancellation/deadline and must not retry.
type VisionInvoker interface {
	Invoke(ctx context.Context, image EncodedImage, prompt string) (*VisionResult, error)
}

// TaxonomyRepository provides read access to the admin-managed attribute
// taxonomy. The engine treats the returned schema as a per-request snapshot.
type TaxonomyRepository interface {
	AttributesForCategory(ctx context.Context, categoryLabel string) ([]AttributeDefinition, error)
}

// ExtractionRepository persists completed extraction records
type ExtractionRepository interface {
	Save(ctx context.Context, record *ExtractionRecord) error
	GetByID(ctx context.Context, id string) (*ExtractionRecord, error)
	UsageSummary(ctx context.Context, since time.Time) (*UsageSummary, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
