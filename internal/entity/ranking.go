package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RankingRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CommunityID int64          `gorm:"index;not null" json:"community_id"`
	MemberCount int            `gorm:"not null" json:"member_count"`
	TotalWealth int64          `gorm:"not null" json:"total_wealth"`
	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt  time.Time      `gorm:"index;not null" json:"finished_at"`
	Entries     []RankingEntry `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"entries,omitempty"`
}

func (r *RankingRun) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

// RankingEntry is one member's position within a run.
type RankingEntry struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	RunID    uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Position int       `gorm:"not null" json:"position"`
	UserID   int64     `gorm:"not null" json:"user_id"`
	Username string    `gorm:"size:100;not null" json:"username"`
	Wealth   int64     `gorm:"not null" json:"wealth"`
}
