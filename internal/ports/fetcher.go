package ports

import (
	"context"

	"noteferry/internal/domain"
)

// Fetcher retrieves the remote document batch. A fetch is atomic per run;
// partial batches are not modeled.
type Fetcher interface {
	FetchDocuments(ctx context.Context) ([]domain.RemoteDocument, error)
}
