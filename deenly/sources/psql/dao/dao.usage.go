package dao

import (
	"context"
	"errors"

	"deenly/deenly/sources/psql/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageDAO stores the per-day question counter of free users.
type UsageDAO struct {
	DB *gorm.DB
}

func NewUsageDAO(db *gorm.DB) *UsageDAO {
	return &UsageDAO{DB: db}
}

func (dao *UsageDAO) GetCount(ctx context.Context, userID, day string) (int, error) {
	var u models.DailyUsage
	err := dao.DB.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("get usage", err)
	}
	return u.Questions, nil
}

func (dao *UsageDAO) Increment(ctx context.Context, userID, day string) error {
	row := models.DailyUsage{UserID: userID, Day: day, Questions: 1}
	err := dao.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"questions": gorm.Expr("daily_usages.questions + 1")}),
	}).Create(&row).Error
	return storeErr("increment usage", err)
}
