package registry

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pkgbot/pkg/cache"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

// Module provides the registry client and the enabled providers for fx.
var Module = fx.Module("registry",
	fx.Provide(
		ProvideClient,
		ProvideSet,
	),
)

// ProvideClient builds the shared HTTP client from the lookup and cache settings.
func ProvideClient(cfg *config.Config, store cache.Store) *Client {
	return NewClient(cfg.RequestTimeout(), cfg.Lookup.UserAgent).
		WithCache(store, cfg.CacheTTL()).
		WithMaxBodySize(int64(cfg.Lookup.MaxResponseMB) << 20)
}

// ProvideSet registers every enabled provider.
func ProvideSet(cfg *config.Config, client *Client, log *logger.Logger) (*Set, error) {
	set, err := NewSet()
	if err != nil {
		return nil, err
	}

	if c := cfg.Providers.Composer; c.Enabled {
		if err := set.Add(NewComposerProvider(client, ComposerOptions{
			BaseURL:     c.BaseURL,
			PlatformKey: c.PlatformKey,
		})); err != nil {
			return nil, fmt.Errorf("register composer provider: %w", err)
		}
	}
	if n := cfg.Providers.NPM; n.Enabled {
		if err := set.Add(NewNPMProvider(client, NPMOptions{
			RegistryURL:  n.RegistryURL,
			DownloadsURL: n.DownloadsURL,
			WebURL:       n.WebURL,
			PlatformKey:  n.PlatformKey,
		})); err != nil {
			return nil, fmt.Errorf("register npm provider: %w", err)
		}
	}

	for _, p := range set.List() {
		log.Info("Registry provider enabled", zap.String("provider", p.Name()), zap.String("title", p.Title()))
	}
	return set, nil
}
