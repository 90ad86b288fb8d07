package bootstrap

import (
	"anoa.com/communitywealth/internal/entity"
	"anoa.com/communitywealth/pkg/kvstore"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.RankingRun{},
		&entity.RankingEntry{},
		&kvstore.KVEntry{},
	)
}
