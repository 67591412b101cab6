package dashboardhttp

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vaxmap/internal/analysis/visual"
	"vaxmap/internal/choropleth"
	"vaxmap/internal/config"
	"vaxmap/internal/dashboard"
	"vaxmap/internal/geo"
	"vaxmap/internal/logger"
	"vaxmap/internal/report"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	store  *dashboard.Store
	mapCfg config.MapConfig
	chart  visual.Options
	home   dashboard.View
	reload func(ctx context.Context) error
}

func newHandlers(cfg ServerConfig) *handlers {
	return &handlers{
		store:  cfg.Store,
		mapCfg: cfg.Map,
		chart:  cfg.Chart,
		home:   dashboard.View{Center: cfg.Map.Center, Zoom: cfg.Map.Zoom},
		reload: cfg.Reload,
	}
}

func (h *handlers) register(group *gin.RouterGroup) {
	group.GET("/status", h.status)
	group.GET("/data", h.data)
	group.GET("/stats", h.stats)
	group.GET("/histogram", h.histogram)
	group.GET("/bands", h.bands)
	group.GET("/view", h.view)
	group.GET("/features/:index", h.selectFeature)
	group.POST("/reset", h.reset)
	if h.reload != nil {
		group.POST("/reload", h.reloadData)
	}
}

// pageConfig is handed to the browser script as JSON.
type pageConfig struct {
	AccessToken    string            `json:"accessToken"`
	Style          string            `json:"style"`
	Center         [2]float64        `json:"center"`
	Zoom           float64           `json:"zoom"`
	FillOpacity    float64           `json:"fillOpacity"`
	BorderColor    string            `json:"borderColor"`
	BorderWidth    float64           `json:"borderWidth"`
	FillExpression []any             `json:"fillExpression"`
	Bands          []choropleth.Band `json:"bands"`
	ChartTitle     string            `json:"chartTitle"`
	ChartSeries    string            `json:"chartSeries"`
	Placeholder    string            `json:"placeholder"`
}

func (h *handlers) index(c *gin.Context) {
	cfg := pageConfig{
		AccessToken:    h.mapCfg.AccessToken,
		Style:          h.mapCfg.Style,
		Center:         h.mapCfg.Center,
		Zoom:           h.mapCfg.Zoom,
		FillOpacity:    h.mapCfg.FillOpacity,
		BorderColor:    h.mapCfg.BorderColor,
		BorderWidth:    h.mapCfg.BorderWidth,
		FillExpression: choropleth.FillExpression(),
		Bands:          choropleth.Bands(),
		ChartTitle:     h.chart.Title,
		ChartSeries:    h.chart.Series,
		Placeholder:    dashboard.Placeholder,
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":  "COVID-19 Vaccination Dashboard",
		"Config": cfg,
		"Bands":  cfg.Bands,
	})
}

// status 加载失败且没有可用数据时返回 503，页面据此弹出一次提示。
func (h *handlers) status(c *gin.Context) {
	st := h.store.Status()
	if st.Error != "" && !st.Loaded {
		c.JSON(http.StatusServiceUnavailable, st)
		return
	}
	c.JSON(http.StatusOK, st)
}

// current 在尚无数据时写出 503 并返回 nil。
func (h *handlers) current(c *gin.Context) *dashboard.Dataset {
	ds := h.store.Current()
	if ds == nil {
		msg := "data not loaded"
		if err := h.store.Err(); err != nil {
			msg = err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg})
		return nil
	}
	return ds
}

func (h *handlers) data(c *gin.Context) {
	ds := h.current(c)
	if ds == nil {
		return
	}
	c.Header("Last-Modified", ds.LoadedAt.UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, "application/geo+json", ds.Collection.Raw)
}

type statsResponse struct {
	choropleth.StatsDisplay
	Raw choropleth.Stats `json:"raw"`
}

func (h *handlers) stats(c *gin.Context) {
	ds := h.current(c)
	if ds == nil {
		return
	}
	if !ds.HasStats {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, statsResponse{StatsDisplay: ds.Stats.Display(), Raw: ds.Stats})
}

func (h *handlers) histogram(c *gin.Context) {
	ds := h.current(c)
	if ds == nil {
		return
	}
	c.JSON(http.StatusOK, ds.Histogram)
}

func (h *handlers) bands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"bands":           choropleth.Bands(),
		"thresholds":      choropleth.Thresholds,
		"raw_thresholds":  choropleth.RawThresholds(),
		"rate_scale":      geo.RateScale,
		"fill_expression": choropleth.FillExpression(),
	})
}

func (h *handlers) view(c *gin.Context) {
	c.JSON(http.StatusOK, dashboard.Initial(h.home))
}

func (h *handlers) selectFeature(c *gin.Context) {
	ds := h.current(c)
	if ds == nil {
		return
	}
	idx, err := strconv.Atoi(strings.TrimSpace(c.Param("index")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feature index"})
		return
	}
	f, ok := ds.Feature(idx)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "feature not found"})
		return
	}
	c.JSON(http.StatusOK, dashboard.Initial(h.home).Select(f))
}

func (h *handlers) reset(c *gin.Context) {
	logger.Debugf("Dashboard reset")
	c.JSON(http.StatusOK, dashboard.Initial(h.home).Reset())
}

func (h *handlers) reloadData(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()
	if err := h.reload(ctx); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.store.Status())
}

func (h *handlers) chartHTML(c *gin.Context) {
	ds := h.current(c)
	if ds == nil {
		return
	}
	opts := h.chart
	opts.Subtitle = visual.StatsSubtitle(ds.Stats, ds.HasStats)
	html, err := visual.HistogramHTML(ds.Histogram, opts)
	if err != nil {
		logger.Errorf("[api] chart html failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *handlers) chartPNG(c *gin.Context) {
	ds := h.current(c)
	if ds == nil {
		return
	}
	img, err := visual.HistogramPNG(ds.Histogram, h.chart)
	if err != nil {
		logger.Errorf("[api] chart png failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", img.Bytes)
}

func (h *handlers) exportXLSX(c *gin.Context) {
	ds := h.current(c)
	if ds == nil {
		return
	}
	data, err := report.WorkbookBytes(ds)
	if err != nil {
		logger.Errorf("[api] export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.FileWorkbook+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
