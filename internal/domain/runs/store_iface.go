package runs

import (
	"context"
	"time"
)

type StoreAPI interface {
	Insert(ctx context.Context, run Run) error
	Complete(ctx context.Context, id, status, errMsg string, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]Run, error)
}
