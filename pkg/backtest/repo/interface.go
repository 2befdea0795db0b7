package repo

import (
	"context"
)

type IRun interface {
	Create(ctx context.Context, record *Run) (*Run, error)
}

type ITrade interface {
	BulkCreate(ctx context.Context, records []*TradeRecord) ([]*TradeRecord, error)
}

type IActivity interface {
	BulkCreate(ctx context.Context, records []*ActivityRecord) ([]*ActivityRecord, error)
}
