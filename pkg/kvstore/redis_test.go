package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
)

func TestRedisStoreGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedis(db, DefaultRedisPrefix)
	ctx := context.Background()

	mock.ExpectGet("communitywealth:lastCommunityId").SetVal("42")
	mock.ExpectGet("communitywealth:lastResults").RedisNil()

	var id int64
	if err := s.Get(ctx, "lastCommunityId", &id); err != nil || id != 42 {
		t.Errorf("expected 42, got %d (%v)", id, err)
	}
	var results []rankedEntry
	if err := s.Get(ctx, "lastResults", &results); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRedisStoreSetManyIsTransactional(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedis(db, DefaultRedisPrefix)

	mock.ExpectTxPipeline()
	mock.ExpectSet("communitywealth:lastCommunityId", "7", 0).SetVal("OK")
	mock.ExpectSet("communitywealth:lastResults", `[{"username":"a","userId":1,"wealth":10000}]`, 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	err := s.SetMany(context.Background(), map[string]any{
		"lastResults":     []rankedEntry{{"a", 1, 10000}},
		"lastCommunityId": int64(7),
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRedisStoreGetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedis(db, DefaultRedisPrefix)

	mock.ExpectGet("communitywealth:lastCommunityId").SetErr(errors.New("connection refused"))

	var id int64
	err := s.Get(context.Background(), "lastCommunityId", &id)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a wrapped connection error, got %v", err)
	}
}
