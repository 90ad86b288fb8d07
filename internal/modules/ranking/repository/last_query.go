package repository

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/communitywealth/internal/modules/ranking/dto"
	"anoa.com/communitywealth/pkg/apperror"
	"anoa.com/communitywealth/pkg/kvstore"
)

const (
	KeyLastCommunityID = "lastCommunityId"
	KeyLastResults     = "lastResults"
)

// LastQueryRepository holds the most recent completed query.
type LastQueryRepository interface {
	Save(ctx context.Context, communityID int64, results []dto.RankedEntry) error
	Load(ctx context.Context) (*dto.LastQuery, error)
	LastCommunityID(ctx context.Context) (int64, error)
}

type lastQueryRepository struct {
	store kvstore.Store
}

func NewLastQueryRepository(store kvstore.Store) LastQueryRepository {
	return &lastQueryRepository{store: store}
}

// Save overwrites both slots in one write.
func (r *lastQueryRepository) Save(ctx context.Context, communityID int64, results []dto.RankedEntry) error {
	if results == nil {
		results = []dto.RankedEntry{}
	}
	return r.store.SetMany(ctx, map[string]any{
		KeyLastCommunityID: communityID,
		KeyLastResults:     results,
	})
}

func (r *lastQueryRepository) LastCommunityID(ctx context.Context) (int64, error) {
	var id int64
	err := r.store.Get(ctx, KeyLastCommunityID, &id)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, apperror.ErrNoPreviousQuery
	}
	if err != nil {
		return 0, fmt.Errorf("load last community id: %w", err)
	}
	return id, nil
}

func (r *lastQueryRepository) Load(ctx context.Context) (*dto.LastQuery, error) {
	id, err := r.LastCommunityID(ctx)
	if err != nil {
		return nil, err
	}

	results := []dto.RankedEntry{}
	err = r.store.Get(ctx, KeyLastResults, &results)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("load last results: %w", err)
	}

	return &dto.LastQuery{CommunityID: id, Results: results}, nil
}
