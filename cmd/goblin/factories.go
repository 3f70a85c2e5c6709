package main

import (
	"context"
	"errors"
	"fmt"

	"goblin/internal/config"
	"goblin/internal/db"
	"goblin/internal/notify"
	"goblin/internal/registry"
	"goblin/internal/runner"
)

var (
	storeFactory = func(cfg config.Config) (db.Store, error) {
		conn := cfg.StorePath
		if cfg.StoreType == "postgres" || cfg.StoreType == "postgresql" {
			conn = cfg.StoreDSN
		}
		return db.NewStore(db.StoreConfig{Type: cfg.StoreType, ConnectionString: conn})
	}

	notifierFactory = func(webhookURL string, cfg config.Config) *notify.DiscordNotifier {
		n := notify.NewDiscordNotifier(webhookURL, cfg.HTTPTimeout)
		n.UserAgent = "goblin/" + version
		n.OnDelivery = appMetrics.ObserveDelivery
		return n
	}

	samplerFactory = func(cfg config.Config) runner.Sampler {
		return runner.NewProcessSampler(cfg.SampleDelay)
	}
)

// withRegistry opens the configured store for the duration of fn.
func withRegistry(ctx context.Context, fn func(*registry.Registry) error) error {
	store, err := storeFactory(config.Current())
	if err != nil {
		return fmt.Errorf("failed to open webhook store: %w", err)
	}
	defer store.Close()

	return fn(registry.New(store))
}

// resolveWebhook finds the named webhook, or the default when name is empty.
func resolveWebhook(ctx context.Context, name string) (*db.Endpoint, error) {
	var ep *db.Endpoint
	err := withRegistry(ctx, func(r *registry.Registry) error {
		var err error
		ep, err = r.Resolve(ctx, name)
		return err
	})
	if err != nil {
		return nil, withHint(err)
	}
	return ep, nil
}

func withHint(err error) error {
	if errors.Is(err, registry.ErrNoDefault) {
		return fmt.Errorf("%w. Use --webhook or set a default with save --set-default", err)
	}
	return err
}
