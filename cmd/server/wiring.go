package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rap-order-service/internal/completion"
	"rap-order-service/internal/config"
	"rap-order-service/internal/lyrics"
	"rap-order-service/internal/notify"
	"rap-order-service/internal/repository"
)

const sqlQueryTimeout = 2 * time.Second

type orderStore struct {
	repo   repository.OrderRepository
	pinger repository.Pinger
	close  func() error
}

func openStore(ctx context.Context, cfg config.Config) (orderStore, error) {
	switch cfg.OrderStore {
	case config.StorePostgres, config.StoreLibSQL:
		var (
			db  *sql.DB
			err error
		)
		if cfg.OrderStore == config.StorePostgres {
			db, err = repository.OpenPostgres(ctx, cfg.PostgresDSN)
		} else {
			db, err = repository.OpenLibSQL(ctx, cfg.LibSQLURL, cfg.LibSQLAuthToken)
		}
		if err != nil {
			return orderStore{}, err
		}

		repo := repository.NewSQLOrderRepository(db, repository.Dialect(cfg.OrderStore), sqlQueryTimeout)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return orderStore{}, err
		}
		return orderStore{repo: repo, pinger: repo, close: db.Close}, nil

	case config.StoreRedis:
		client, err := repository.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return orderStore{}, err
		}
		repo := repository.NewRedisOrderRepository(client, cfg.OrderTTL)
		return orderStore{repo: repo, pinger: repo, close: client.Close}, nil

	default:
		return orderStore{
			repo:  repository.NewMemoryOrderRepository(cfg.OrderTTL),
			close: func() error { return nil },
		}, nil
	}
}

type endpointCompleter interface {
	completion.Completer
	Endpoint() string
}

func newCompleter(ctx context.Context, cfg config.Config) (endpointCompleter, error) {
	if cfg.CompletionProvider == config.ProviderGemini {
		gemini, err := completion.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	}
	return completion.NewClient(cfg.CompletionEndpoint, cfg.CompletionAPIKey, cfg.CompletionCustomerID), nil
}

func newNotifier(cfg config.Config, logger *zap.Logger) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, notify.NewBestEffort("telegram", tg, logger.Named("telegram")))
	}
	return notifiers, nil
}

func loadCatalog(path string) (*lyrics.Catalog, error) {
	if path == "" {
		return lyrics.DefaultCatalog()
	}
	catalog, err := lyrics.LoadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("load templates file=%s: %w", path, err)
	}
	return catalog, nil
}
