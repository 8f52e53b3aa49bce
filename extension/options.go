package extension

import (
	"log/slog"

	"github.com/xraph/trellis"
	"github.com/xraph/trellis/plugin"
	"github.com/xraph/trellis/store"
)

// ExtOption configures the Trellis Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.trellisOpts = append(e.trellisOpts, trellis.WithStore(s))
	}
}

// WithNotifier sets the notification delivery mechanism.
func WithNotifier(n trellis.Notifier) ExtOption {
	return func(e *Extension) {
		e.trellisOpts = append(e.trellisOpts, trellis.WithNotifier(n))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...trellis.Option) ExtOption {
	return func(e *Extension) {
		e.trellisOpts = append(e.trellisOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
