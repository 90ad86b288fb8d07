package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"anoa.com/communitywealth/internal/config"
	community "anoa.com/communitywealth/internal/modules/community/service"
	"anoa.com/communitywealth/internal/modules/ranking/repository"
	ranking "anoa.com/communitywealth/internal/modules/ranking/service"
	search "anoa.com/communitywealth/internal/modules/search/service"
	status "anoa.com/communitywealth/internal/modules/status/service"
	wealth "anoa.com/communitywealth/internal/modules/wealth/service"
	"anoa.com/communitywealth/pkg/database"
	"anoa.com/communitywealth/pkg/kvstore"
	"anoa.com/communitywealth/pkg/roblox"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App holds the wired dependencies shared by the server and the CLI.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	Store       kvstore.Store
	Latest      *status.Latest
	Broadcaster *status.Broadcaster
	Service     ranking.Service

	closers []func() error
}

// New connects the configured backends and builds the ranking service.
// Extra sinks receive every status next to the built-in ones.
func New(ctx context.Context, cfg *config.Config, sinks ...status.Sink) (app *App, err error) {
	app = &App{
		Config:      cfg,
		Latest:      status.NewLatest(),
		Broadcaster: status.NewBroadcaster(),
	}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	if cfg.DatabaseURL != "" || cfg.StoreDriver == config.StorePostgres {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return app, err
		}
		if err := Migrate(db); err != nil {
			return app, fmt.Errorf("migration failed: %w", err)
		}
		app.DB = db
		if sqlDB, err := db.DB(); err == nil {
			app.closers = append(app.closers, sqlDB.Close)
		}
	}

	if cfg.RedisURL != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.StoreDriver == config.StoreRedis {
				return app, err
			}
			log.Printf("⚠️ Redis unavailable, continuing without it: %v", err)
		} else {
			app.Redis = rdb
			app.closers = append(app.closers, rdb.Close)
		}
	}

	if app.Store, err = app.openStore(); err != nil {
		return app, err
	}

	client := roblox.NewClient(
		roblox.WithTimeout(cfg.HTTPTimeout),
		roblox.WithBaseURLs(cfg.RobloxGroupsURL, cfg.RobloxInventoryURL),
	)

	all := []status.Sink{app.Latest, app.Broadcaster}
	if app.Redis != nil {
		all = append(all, status.NewRedisPublisher(app.Redis))
	}
	all = append(all, sinks...)

	var history repository.HistoryRepository
	if app.DB != nil {
		history = repository.NewHistoryRepository(app.DB)
	}

	app.Service = ranking.NewRankingService(
		community.NewService(client, cfg.MemberMaxPages),
		ranking.NewAggregator(wealth.NewEstimator(client, cfg.WealthThreshold, cfg.WealthMaxPages), cfg.RankWorkers),
		repository.NewLastQueryRepository(app.Store),
		history,
		newMemberIndex(cfg),
		status.Multi(all...),
	)

	return app, nil
}

func (a *App) openStore() (kvstore.Store, error) {
	switch a.Config.StoreDriver {
	case config.StoreMemory:
		return kvstore.NewMemory(), nil
	case config.StoreRedis:
		if a.Redis == nil {
			return nil, errors.New("redis store selected but redis is not connected")
		}
		return kvstore.NewRedis(a.Redis, kvstore.DefaultRedisPrefix), nil
	case config.StorePostgres:
		return kvstore.NewGorm(a.DB), nil
	default:
		s, err := kvstore.OpenSQLite(a.Config.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
}

func newMemberIndex(cfg *config.Config) search.MemberIndex {
	host := cfg.MeiliSearchHost
	if host == "" {
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}
	if cfg.MeiliMasterKey == "" {
		log.Println("WARNING: MEILI_MASTER_KEY is not set.")
	}
	return search.NewMeiliMemberIndex(meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey)))
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
