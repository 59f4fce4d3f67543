package reliability

import (
	"context"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/pkg/circuitbreaker"
)

// StorageWrapper guards object storage with a circuit breaker so a degraded
// backend fails saves fast instead of stalling every upload attempt. Retry
// policy lives with the caller; the breaker only decides admission.
type StorageWrapper struct {
	storage ports.ObjectStorage
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

// NewStorageWrapper creates a wrapper around storage with the given breaker
// configuration.
func NewStorageWrapper(
	storage ports.ObjectStorage,
	cbConfig circuitbreaker.Config,
	logger *zap.SugaredLogger,
) ports.ObjectStorage {
	wrapper := &StorageWrapper{
		storage: storage,
		breaker: circuitbreaker.New(cbConfig),
		logger:  logger,
	}

	wrapper.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("storage circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})

	return wrapper
}

func (w *StorageWrapper) Upload(ctx context.Context, path string, data []byte) (string, error) {
	var url string
	err := w.breaker.Execute(ctx, func() error {
		var uploadErr error
		url, uploadErr = w.storage.Upload(ctx, path, data)
		return uploadErr
	})
	return url, err
}

func (w *StorageWrapper) PublicURL(path string) string {
	return w.storage.PublicURL(path)
}
