package app

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"vaxmap/internal/choropleth"
	"vaxmap/internal/logger"
)

type StartupSummary struct {
	Env       string
	HTTPAddr  string
	Source    string
	Timeout   time.Duration
	Watch     bool
	Metrics   bool
	Telegram  bool
	MapStyle  string
	MapCenter [2]float64
	MapZoom   float64
	HasToken  bool
	Bands     []choropleth.Band
}

// Print writes the summary through the logger so it also lands in the log file.
func (s *StartupSummary) Print() {
	var buf bytes.Buffer
	s.Fprint(&buf)
	logger.InfoBlock(buf.String())
}

func (s *StartupSummary) Fprint(w io.Writer) {
	title := "启动配置摘要 (STARTUP SUMMARY)"
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "%*s\n", 40+len(title)/2, title)
	fmt.Fprintln(w, strings.Repeat("=", 80))

	fmt.Fprintln(w, "[数据源 (DATA SOURCE)]")
	fmt.Fprintf(w, "  地址: %s\n", s.Source)
	fmt.Fprintf(w, "  超时: %s\n", formatTimeout(s.Timeout))
	fmt.Fprintf(w, "  文件监听: %s\n", onOff(s.Watch))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[地图 (MAP)]")
	fmt.Fprintf(w, "  样式: %s\n", s.MapStyle)
	fmt.Fprintf(w, "  中心: [%.4f, %.4f] zoom=%.1f\n", s.MapCenter[0], s.MapCenter[1], s.MapZoom)
	token := "已配置"
	if !s.HasToken {
		token = "(未配置, 底图无法加载)"
	}
	fmt.Fprintf(w, "  Access Token: %s\n", token)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[分级色带 (BANDS)]")
	for _, b := range s.Bands {
		fmt.Fprintf(w, "  %-7s %s\n", b.Label, b.Color)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[服务 (SERVICES)]")
	fmt.Fprintf(w, "  环境: %s\n", orDash(s.Env))
	fmt.Fprintf(w, "  HTTP: %s\n", s.HTTPAddr)
	fmt.Fprintf(w, "  Metrics: %s\n", onOff(s.Metrics))
	fmt.Fprintf(w, "  Telegram: %s\n", onOff(s.Telegram))
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

func formatTimeout(d time.Duration) string {
	if d <= 0 {
		return "无"
	}
	return d.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
