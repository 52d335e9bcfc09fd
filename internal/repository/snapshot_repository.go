package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/snapshot"
)

// GormSnapshotRepository хранит снимок в таблице snapshots под одним ключом.
type GormSnapshotRepository struct {
	db  *gorm.DB
	key string
}

func NewGormSnapshotRepository(db *gorm.DB, key string) *GormSnapshotRepository {
	if key == "" {
		key = snapshot.DefaultKey
	}
	return &GormSnapshotRepository{db: db, key: key}
}

var _ snapshot.Store = (*GormSnapshotRepository)(nil)

func (r *GormSnapshotRepository) Load(ctx context.Context) ([]byte, bool, error) {
	var row model.Snapshot
	err := r.db.WithContext(ctx).First(&row, "name = ?", r.key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %s: %w", r.key, err)
	}
	return []byte(row.Data), true, nil
}

// Save — upsert по ключу.
func (r *GormSnapshotRepository) Save(ctx context.Context, blob []byte) error {
	row := &model.Snapshot{Name: r.key, Data: datatypes.JSON(blob)}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", r.key, err)
	}
	return nil
}

func (r *GormSnapshotRepository) Clear(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Where("name = ?", r.key).
		Delete(&model.Snapshot{}).Error
	if err != nil {
		return fmt.Errorf("clear snapshot %s: %w", r.key, err)
	}
	return nil
}
