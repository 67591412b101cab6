package config

import (
	"strings"
	"time"
)

// Config is the root configuration for the vaxmap service.
type Config struct {
	App    AppConfig    `mapstructure:"app" yaml:"app"`
	Data   DataConfig   `mapstructure:"data" yaml:"data"`
	Map    MapConfig    `mapstructure:"map" yaml:"map"`
	Chart  ChartConfig  `mapstructure:"chart" yaml:"chart"`
	Report ReportConfig `mapstructure:"report" yaml:"report"`
	Notify NotifyConfig `mapstructure:"notify" yaml:"notify"`
}

type AppConfig struct {
	Env       string `mapstructure:"env" yaml:"env"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogPath   string `mapstructure:"log_path" yaml:"log_path"`
	HTTPAddr  string `mapstructure:"http_addr" yaml:"http_addr"`
	Metrics   bool   `mapstructure:"metrics" yaml:"metrics"`
}

// DataConfig describes where the GeoJSON document comes from.
type DataConfig struct {
	// Source is an http(s) URL or a file path; relative paths resolve against the working directory.
	Source         string `mapstructure:"source" yaml:"source"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// Watch reloads the dataset when a file source changes on disk.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// Timeout returns the fetch timeout; zero means no timeout.
func (d DataConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// IsRemote reports whether Source is fetched over HTTP.
func (d DataConfig) IsRemote() bool {
	src := strings.ToLower(strings.TrimSpace(d.Source))
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// MapConfig carries the basemap settings handed to the browser.
type MapConfig struct {
	AccessToken string     `mapstructure:"access_token" yaml:"access_token"`
	Style       string     `mapstructure:"style" yaml:"style"`
	Center      [2]float64 `mapstructure:"center" yaml:"center,flow"`
	Zoom        float64    `mapstructure:"zoom" yaml:"zoom"`
	FillOpacity float64    `mapstructure:"fill_opacity" yaml:"fill_opacity"`
	BorderColor string     `mapstructure:"border_color" yaml:"border_color"`
	BorderWidth float64    `mapstructure:"border_width" yaml:"border_width"`
}

type ChartConfig struct {
	Title    string `mapstructure:"title" yaml:"title"`
	Series   string `mapstructure:"series" yaml:"series"`
	WidthPx  int    `mapstructure:"width_px" yaml:"width_px"`
	HeightPx int    `mapstructure:"height_px" yaml:"height_px"`
}

// ReportConfig controls the one-shot export bundle.
type ReportConfig struct {
	OutDir     string `mapstructure:"out_dir" yaml:"out_dir"`
	Screenshot bool   `mapstructure:"screenshot" yaml:"screenshot"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   string `mapstructure:"chat_id" yaml:"chat_id"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
