package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"vaxmap/internal/app"
	vxcfg "vaxmap/internal/config"
	"vaxmap/internal/logger"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "vaxmap",
		Short: "County vaccination choropleth dashboard",
		Long: `vaxmap serves an interactive county map shaded by fully vaccinated
rate, with summary statistics and a distribution chart.

Run without a subcommand to start the dashboard server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", configPathFromEnv(), "path to config file")

	rootCmd.AddCommand(
		serveCmd(&cfgPath),
		reportCmd(&cfgPath),
		configCmd(&cfgPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(1)
	}
}

func configPathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv(vxcfg.EnvPrefix + "_CONFIG")); p != "" {
		return p
	}
	return defaultConfigPath
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfgPath)
		},
	}
}

func reportCmd(cfgPath *string) *cobra.Command {
	var outDir string
	var screenshot bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Load the dataset once and write the export bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			defer closeLog()
			if cmd.Flags().Changed("screenshot") {
				cfg.Report.Screenshot = screenshot
			}
			a, err := app.NewApp(cfg)
			if err != nil {
				return fmt.Errorf("初始化应用失败: %w", err)
			}
			paths, err := a.Report(cmd.Context(), outDir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (defaults to report.out_dir)")
	cmd.Flags().BoolVar(&screenshot, "screenshot", false, "also capture a headless-browser screenshot")
	return cmd
}

func configCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vxcfg.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("读取配置失败: %w", err)
			}
			out, err := vxcfg.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	cfg, closeLog, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := app.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("运行失败: %w", err)
	}
	logger.Infof("shutdown complete")
	return nil
}

func loadConfig(path string) (*vxcfg.Config, func(), error) {
	cfg, err := vxcfg.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置失败: %w", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志文件失败: %w", err)
	}
	logger.SetFormat(cfg.App.LogFormat)
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，数据源=%s）", cfg.App.Env, cfg.Data.Source)
	closeLog := func() {
		if logFile != nil {
			_ = logFile.Close()
		}
	}
	return cfg, closeLog, nil
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
