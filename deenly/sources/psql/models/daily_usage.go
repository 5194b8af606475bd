package models

// DailyUsage counts the questions a free user asked on one local calendar day.
type DailyUsage struct {
	UserID    string `gorm:"type:varchar(64);primaryKey"`
	Day       string `gorm:"type:varchar(10);primaryKey"`
	Questions int    `gorm:"not null;default:0"`
}

func (DailyUsage) TableName() string {
	return "daily_usages"
}
