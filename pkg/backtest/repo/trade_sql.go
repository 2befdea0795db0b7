package repo

import (
	"context"

	"gorm.io/gorm"
)

const bulkBatchSize = 500

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

func (s *TradeSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *TradeSQLRepo) BulkCreate(ctx context.Context, records []*TradeRecord) ([]*TradeRecord, error) {
	if len(records) == 0 {
		return records, nil
	}
	if err := s.dbWithContext(ctx).CreateInBatches(records, bulkBatchSize).Error; err != nil {
		return nil, err
	}
	return records, nil
}
