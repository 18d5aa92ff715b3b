package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bitfantasy/eam/internal/inventory/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository 管理编号前缀计数器
//
// 发号在事务内对计数器行加 FOR UPDATE 锁后递增，同一前缀的并发创建
// 被串行化，不会发出重复编号。首次使用某前缀时从存量管理编号补种：
// 解析数字后缀取最大值，而不是按字典序取末尾（字典序在后缀位数
// 超过4位后会把 "2000" 排在 "10000" 之后，取错最大值）。
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next 返回指定前缀的下一个序号（从1开始）
func (r *SequenceRepository) Next(ctx context.Context, prefix string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq entity.NumberSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&seq, "prefix = ?", prefix).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			last, seedErr := r.seedFromExisting(tx, prefix)
			if seedErr != nil {
				return seedErr
			}
			// 并发首用时另一事务可能抢先插入同前缀行；唯一冲突会中止
			// 整个事务，所以这里用 DO NOTHING 抢插，再统一加锁读回
			seed := entity.NumberSequence{Prefix: prefix, LastSeq: last}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&seq, "prefix = ?", prefix).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		seq.LastSeq++
		next = seq.LastSeq
		return tx.Save(&seq).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// seedFromExisting 扫描存量编号，按数字后缀取最大序号
func (r *SequenceRepository) seedFromExisting(tx *gorm.DB, prefix string) (int, error) {
	var numbers []string
	err := tx.Model(&entity.Equipment{}).
		Where("management_number LIKE ?", prefix+"%").
		Pluck("management_number", &numbers).Error
	if err != nil {
		return 0, err
	}

	max := 0
	for _, num := range numbers {
		suffix := strings.TrimPrefix(num, prefix)
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}
