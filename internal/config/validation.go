package config

import (
	"fmt"
	"net/url"
	"strings"

	"vaxmap/internal/logger"
)

// validate runs basic sanity checks over the loaded configuration.
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Data.validate(); err != nil {
		return err
	}
	if err := c.Map.validate(); err != nil {
		return err
	}
	if err := c.Chart.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogFormat)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", a.LogFormat)
	}
	return nil
}

func (d *DataConfig) validate() error {
	src := strings.TrimSpace(d.Source)
	if src == "" {
		return fmt.Errorf("data.source cannot be empty")
	}
	if d.TimeoutSeconds < 0 {
		return fmt.Errorf("data.timeout_seconds must be >= 0")
	}
	if d.IsRemote() {
		u, err := url.Parse(src)
		if err != nil {
			return fmt.Errorf("data.source is not a valid url: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("data.source url has no host: %s", src)
		}
		if d.Watch {
			logger.Warnf("data.watch ignored for remote source %s", src)
			d.Watch = false
		}
	}
	return nil
}

func (m *MapConfig) validate() error {
	lon, lat := m.Center[0], m.Center[1]
	if lon < -180 || lon > 180 {
		return fmt.Errorf("map.center longitude out of range: %v", lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("map.center latitude out of range: %v", lat)
	}
	if m.Zoom < 0 || m.Zoom > 24 {
		return fmt.Errorf("map.zoom must be in [0, 24]")
	}
	if m.FillOpacity < 0 || m.FillOpacity > 1 {
		return fmt.Errorf("map.fill_opacity must be in [0, 1]")
	}
	return nil
}

func (c *ChartConfig) validate() error {
	if c.WidthPx < 0 || c.HeightPx < 0 {
		return fmt.Errorf("chart.width_px and chart.height_px must be >= 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if !tg.Enabled {
		return nil
	}
	if strings.TrimSpace(tg.BotToken) == "" || strings.TrimSpace(tg.ChatID) == "" {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
