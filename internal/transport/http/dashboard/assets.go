package dashboardhttp

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

//go:embed web/templates/*.html web/static/*
var webAssets embed.FS

func loadTemplates(router *gin.Engine) error {
	files, err := fs.Glob(webAssets, "web/templates/*.html")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no templates found in embedded FS")
	}
	tmpl, err := template.New("dashboard").ParseFS(webAssets, files...)
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)
	return nil
}

func serveStatic(router *gin.Engine) error {
	sub, err := fs.Sub(webAssets, "web/static")
	if err != nil {
		return err
	}
	router.GET("/static/:asset", func(c *gin.Context) {
		name := c.Param("asset")
		data, err := fs.ReadFile(sub, name)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, mimeType(name), data)
	})
	return nil
}

func mimeType(name string) string {
	switch path.Ext(name) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}
