package repo

import (
	"context"

	"gorm.io/gorm"
)

type RunSQLRepo struct {
	db *gorm.DB
}

func NewRunSQLRepo(db *gorm.DB) *RunSQLRepo {
	return &RunSQLRepo{
		db: db,
	}
}

func (s *RunSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *RunSQLRepo) Create(ctx context.Context, record *Run) (*Run, error) {
	if err := s.dbWithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}
