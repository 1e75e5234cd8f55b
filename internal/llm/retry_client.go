package llm

import (
	"context"

	agenterrors "copilot/internal/errors"
	"copilot/internal/logging"
)

// retryClient decorates a CompletionClient with the shared retry policy.
// Transient transport and server errors are retried; everything else passes
// straight through.
type retryClient struct {
	inner  CompletionClient
	config agenterrors.RetryConfig
	logger logging.Logger
}

// NewRetryClient wraps inner with retry.
func NewRetryClient(inner CompletionClient, config agenterrors.RetryConfig, logger logging.Logger) CompletionClient {
	return &retryClient{
		inner:  inner,
		config: config,
		logger: logging.OrNop(logger),
	}
}

func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return agenterrors.RetryWithResult(ctx, c.config, func(ctx context.Context) (*CompletionResponse, error) {
		return c.inner.Complete(ctx, req)
	}, c.logger)
}
