package app

import (
	"context"
	"fmt"
	"strings"

	"vaxmap/internal/analysis/visual"
	"vaxmap/internal/choropleth"
	"vaxmap/internal/config"
	"vaxmap/internal/dashboard"
	"vaxmap/internal/datasource"
	"vaxmap/internal/gateway/notifier"
	"vaxmap/internal/logger"
	"vaxmap/internal/metrics"
	dashboardhttp "vaxmap/internal/transport/http/dashboard"
)

type AppBuilder struct {
	cfg *config.Config

	sourceFn   func(config.DataConfig) (datasource.Source, error)
	notifierFn func(config.NotifyConfig) notifier.TextNotifier
	httpFn     func(dashboardhttp.ServerConfig) (*dashboardhttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithSource replaces the configured data source.
func WithSource(src datasource.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		b.sourceFn = func(config.DataConfig) (datasource.Source, error) { return src, nil }
	}
}

// WithNotifier replaces the Telegram notifier.
func WithNotifier(n notifier.TextNotifier) AppBuilderOption {
	return func(b *AppBuilder) {
		b.notifierFn = func(config.NotifyConfig) notifier.TextNotifier { return n }
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		sourceFn:   datasource.New,
		notifierFn: newTelegram,
		httpFn:     dashboardhttp.NewServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	// the page colors the map with the expression, the chart with ColorFor
	if err := choropleth.VerifyFillConsistency(choropleth.ConsistencySamples()); err != nil {
		return nil, fmt.Errorf("fill expression check: %w", err)
	}

	src, err := b.sourceFn(cfg.Data)
	if err != nil {
		return nil, err
	}
	store := dashboard.NewStore(src.Location())

	var observers []dashboard.LoadObserver
	var m *metrics.Metrics
	if cfg.App.Metrics {
		m = metrics.New(true)
		observers = append(observers, m)
	}
	var textNotifier notifier.TextNotifier
	if b.notifierFn != nil {
		textNotifier = b.notifierFn(cfg.Notify)
	}
	var alert *notifier.LoadAlert
	if textNotifier != nil {
		alert = notifier.NewLoadAlert(textNotifier)
		observers = append(observers, alert)
	}
	loader := dashboard.NewLoader(src, store, observers...)

	chart := chartOptions(cfg.Chart)
	server, err := b.httpFn(dashboardhttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Store:   store,
		Map:     cfg.Map,
		Chart:   chart,
		Metrics: m,
		Reload: func(ctx context.Context) error {
			_, err := loader.Load(ctx)
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	var watchPath string
	if cfg.Data.Watch && !cfg.Data.IsRemote() {
		watchPath = src.Location()
	}

	summary := &StartupSummary{
		Env:       cfg.App.Env,
		HTTPAddr:  cfg.App.HTTPAddr,
		Source:    src.Location(),
		Timeout:   cfg.Data.Timeout(),
		Watch:     watchPath != "",
		Metrics:   m != nil,
		Telegram:  textNotifier != nil,
		MapStyle:  cfg.Map.Style,
		MapCenter: cfg.Map.Center,
		MapZoom:   cfg.Map.Zoom,
		HasToken:  strings.TrimSpace(cfg.Map.AccessToken) != "",
		Bands:     choropleth.Bands(),
	}
	logger.Debugf("app built: source=%s addr=%s", src.Location(), cfg.App.HTTPAddr)

	return &App{
		cfg:       cfg,
		store:     store,
		loader:    loader,
		http:      server,
		metrics:   m,
		alert:     alert,
		chart:     chart,
		watchPath: watchPath,
		Summary:   summary,
	}, nil
}

func chartOptions(cfg config.ChartConfig) visual.Options {
	return visual.Options{
		Title:    cfg.Title,
		Series:   cfg.Series,
		WidthPx:  cfg.WidthPx,
		HeightPx: cfg.HeightPx,
	}
}

// newTelegram returns nil when alerts are disabled; Load has already
// rejected an enabled config without credentials.
func newTelegram(cfg config.NotifyConfig) notifier.TextNotifier {
	tg := cfg.Telegram
	if !tg.Enabled {
		return nil
	}
	return notifier.NewTelegram(strings.TrimSpace(tg.BotToken), strings.TrimSpace(tg.ChatID))
}
