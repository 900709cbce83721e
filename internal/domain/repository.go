package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FeedProvider fetches the product records of a merchant feed
type FeedProvider interface {
	Name() string
	ListProducts(ctx context.Context) ([]Product, error)
}

// FeedPublisher pushes category and custom label updates back to the feed platform
type FeedPublisher interface {
	PublishProducts(ctx context.Context, products []EnrichedProduct) (*PublishResult, error)
}

// TitleSuggester proposes a better product title
type TitleSuggester interface {
	SuggestTitle(ctx context.Context, product Product, recommendations []string) (string, error)
}

// BatchRecorder receives the outcome of every optimized batch (metrics)
type BatchRecorder interface {
	RecordBatch(result BatchResult, elapsed time.Duration)
}
