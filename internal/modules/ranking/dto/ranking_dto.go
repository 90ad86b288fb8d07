package dto

import (
	"time"

	"github.com/google/uuid"
)

// RankedEntry is the persisted and displayed shape of one ranked member.
type RankedEntry struct {
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
	Wealth   int64  `json:"wealth"`
}

type LastQuery struct {
	CommunityID int64         `json:"community_id"`
	Results     []RankedEntry `json:"results"`
}

type RankingResult struct {
	RunID       uuid.UUID     `json:"run_id"`
	CommunityID int64         `json:"community_id"`
	Entries     []RankedEntry `json:"entries"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// RunTicket identifies a run accepted for background execution.
type RunTicket struct {
	RunID       uuid.UUID `json:"run_id"`
	CommunityID int64     `json:"community_id"`
	Running     bool      `json:"already_running,omitempty"`
}

type SearchRequest struct {
	Link string `json:"link" binding:"required,max=2048"`
}

type HistoryFilter struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

type IndexSearchFilter struct {
	Query string `form:"q" binding:"required,max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type RunSummary struct {
	ID          uuid.UUID `json:"id"`
	CommunityID int64     `json:"community_id"`
	MemberCount int       `json:"member_count"`
	TotalWealth int64     `json:"total_wealth"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

type RunDetail struct {
	RunSummary
	Entries []RankedEntry `json:"entries"`
}
