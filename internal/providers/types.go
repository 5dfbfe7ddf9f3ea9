package providers

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the API has no resource at the requested path
var ErrNotFound = errors.New("resource not found")

// CacheProvider stores decoded provider responses
type CacheProvider interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// BreakerExecutor guards calls to a named upstream
type BreakerExecutor interface {
	Execute(service string, fn func() (interface{}, error)) (interface{}, error)
}

type passthroughBreaker struct{}

func (passthroughBreaker) Execute(_ string, fn func() (interface{}, error)) (interface{}, error) {
	return fn()
}
