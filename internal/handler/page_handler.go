package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PageData is injected into the booking page.
type PageData struct {
	AccessToken string
	Container   string
}

// PageHandler serves the single booking page.
type PageHandler struct {
	data PageData
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(data PageData) *PageHandler {
	if data.Container == "" {
		data.Container = "map"
	}
	return &PageHandler{data: data}
}

// RegisterRoutes registers the page route on the given router group.
func (h *PageHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.Index)
}

// Index handles GET /.
func (h *PageHandler) Index(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplate,
		Name:     "index.html",
		Data:     h.data,
	})
}
