package repo

import (
	"context"

	"gorm.io/gorm"
)

type ActivitySQLRepo struct {
	db *gorm.DB
}

func NewActivitySQLRepo(db *gorm.DB) *ActivitySQLRepo {
	return &ActivitySQLRepo{
		db: db,
	}
}

func (s *ActivitySQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *ActivitySQLRepo) BulkCreate(ctx context.Context, records []*ActivityRecord) ([]*ActivityRecord, error) {
	if len(records) == 0 {
		return records, nil
	}
	if err := s.dbWithContext(ctx).CreateInBatches(records, bulkBatchSize).Error; err != nil {
		return nil, err
	}
	return records, nil
}
