package app

import (
	"context"
	"fmt"
	"time"

	"vaxmap/internal/analysis/visual"
	"vaxmap/internal/config"
	"vaxmap/internal/dashboard"
	"vaxmap/internal/datasource"
	"vaxmap/internal/gateway/notifier"
	"vaxmap/internal/logger"
	"vaxmap/internal/metrics"
	"vaxmap/internal/report"
	dashboardhttp "vaxmap/internal/transport/http/dashboard"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载数据→启动 HTTP 服务→监听数据文件变更。
type App struct {
	cfg       *config.Config
	store     *dashboard.Store
	loader    *dashboard.Loader
	http      *dashboardhttp.Server
	metrics   *metrics.Metrics
	alert     *notifier.LoadAlert
	chart     visual.Options
	watchPath string
	Summary   *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *config.Config, opts ...AppBuilderOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg, opts)
}

// Run loads the dataset once, then serves until ctx is cancelled. A failed
// load is not fatal: the page reports it and a file change may fix it.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}

	// 首次加载在开服前完成，页面不会看到半初始化状态
	_, _ = a.loader.Load(ctx)

	group, ctx := errgroup.WithContext(ctx)

	if a.http != nil {
		group.Go(func() error {
			if err := a.http.Start(ctx); err != nil {
				return fmt.Errorf("dashboard http server error: %w", err)
			}
			return nil
		})
	}

	if a.watchPath != "" {
		group.Go(func() error {
			return datasource.Watch(ctx, a.watchPath, 0, func() {
				logger.Infof("data file changed, reloading")
				_, _ = a.loader.Load(ctx)
			})
		})
	}

	err := group.Wait()
	a.alert.Wait()
	return err
}

// Report fetches the dataset once and writes the export bundle to outDir.
func (a *App) Report(ctx context.Context, outDir string) ([]string, error) {
	if a == nil || a.loader == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	if outDir == "" {
		outDir = a.cfg.Report.OutDir
	}
	start := time.Now()
	ds, err := a.loader.Load(ctx)
	a.alert.Wait()
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	paths, err := report.WriteBundle(ctx, ds, report.Options{
		OutDir:     outDir,
		Chart:      a.chart,
		Screenshot: a.cfg.Report.Screenshot,
	})
	if err != nil {
		return paths, err
	}
	logger.Infof("report written to %s (%d files) in %s", outDir, len(paths), time.Since(start).Round(time.Millisecond))
	return paths, nil
}

// Store exposes the dataset store (for tests).
func (a *App) Store() *dashboard.Store {
	if a == nil {
		return nil
	}
	return a.store
}

// HTTPServer exposes the dashboard server (for tests).
func (a *App) HTTPServer() *dashboardhttp.Server {
	if a == nil {
		return nil
	}
	return a.http
}
