package fetcher

import (
	"context"

	"github.com/memescout/memescout/pkg/failure"
	"github.com/memescout/memescout/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
