package config

import "strings"

const (
	defaultAppEnv         = "dev"
	defaultAppLogLevel    = "info"
	defaultAppLogFormat   = "text"
	defaultAppHTTPAddr    = ":8080"
	defaultAppMetrics     = true
	defaultDataSource     = "assets/wa-covid-data-102521.geojson"
	defaultDataTimeout    = 30
	defaultMapStyle       = "mapbox://styles/mapbox/light-v10"
	defaultMapCenterLon   = -120.5
	defaultMapCenterLat   = 47.5
	defaultMapZoom        = 6.5
	defaultMapFillOpacity = 0.8
	defaultMapBorderColor = "#999"
	defaultMapBorderWidth = 2
	defaultChartTitle     = "Vaccination Rate Distribution"
	defaultChartSeries    = "Number of Counties"
	defaultChartWidth     = 900
	defaultChartHeight    = 420
	defaultReportOutDir   = "out"
)

// Default returns a configuration with every default applied, as if loaded from an empty file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults(nil)
	return cfg
}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Data.applyDefaults(keys)
	c.Map.applyDefaults(keys)
	c.Chart.applyDefaults(keys)
	c.Report.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		boolFieldDefault("app.metrics", &a.Metrics, defaultAppMetrics),
	)
}

func (d *DataConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("data.source", &d.Source, defaultDataSource),
		// timeout_seconds: 0 set explicitly means "no timeout"
		fieldDefault{
			key:   "data.timeout_seconds",
			need:  func() bool { return d.TimeoutSeconds <= 0 },
			apply: func() { d.TimeoutSeconds = defaultDataTimeout },
		},
	)
}

func (m *MapConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("map.style", &m.Style, defaultMapStyle),
		stringFieldDefault("map.border_color", &m.BorderColor, defaultMapBorderColor),
		fieldDefault{
			key:   "map.center",
			need:  func() bool { return m.Center == [2]float64{} },
			apply: func() { m.Center = [2]float64{defaultMapCenterLon, defaultMapCenterLat} },
		},
		floatFieldDefault("map.zoom", &m.Zoom, defaultMapZoom),
		floatFieldDefault("map.fill_opacity", &m.FillOpacity, defaultMapFillOpacity),
		floatFieldDefault("map.border_width", &m.BorderWidth, defaultMapBorderWidth),
	)
}

func (c *ChartConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("chart.title", &c.Title, defaultChartTitle),
		stringFieldDefault("chart.series", &c.Series, defaultChartSeries),
		intFieldDefault("chart.width_px", &c.WidthPx, defaultChartWidth),
		intFieldDefault("chart.height_px", &c.HeightPx, defaultChartHeight),
	)
}

func (r *ReportConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("report.out_dir", &r.OutDir, defaultReportOutDir),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil && *target <= 0 },
		apply: func() { *target = def },
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil && *target <= 0 },
		apply: func() { *target = def },
	}
}
