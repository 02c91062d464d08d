package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cine-catalog/catalog"
	"cine-catalog/scheduler"

	"github.com/gin-gonic/gin"
)

// Refresher starts background refreshes and reports on them.
type Refresher interface {
	Trigger() error
	Status() scheduler.Status
}

type Handler struct {
	Store     *catalog.Store
	Refresher Refresher
}

func NewHandler(store *catalog.Store, refresher Refresher) *Handler {
	return &Handler{Store: store, Refresher: refresher}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/titles", h.list)                    // GET /api/titles
	rg.GET("/titles/filter", h.filter)           // GET /api/titles/filter?rating=..&language=..&genre=..&q=..
	rg.GET("/titles/search", h.search)           // GET /api/titles/search?q=..
	rg.GET("/titles/rating/:rating", h.byRating) // GET /api/titles/rating/15
	rg.GET("/titles/:id", h.getByID)             // GET /api/titles/42
	rg.GET("/facets", h.facets)
	rg.POST("/refresh", h.refresh)
	rg.GET("/refresh/status", h.refreshStatus)
}

func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.All())
}

func (h *Handler) filter(c *gin.Context) {
	q := catalog.Query{
		Ratings:   multiValue(c, "rating"),
		Languages: multiValue(c, "language"),
		Genres:    multiValue(c, "genre"),
		Text:      c.Query("q"),
	}
	c.JSON(http.StatusOK, h.Store.Filter(q))
}

func (h *Handler) search(c *gin.Context) {
	text := strings.TrimSpace(c.Query("q"))
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	c.JSON(http.StatusOK, h.Store.Search(text))
}

func (h *Handler) byRating(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.ByRating(c.Param("rating")))
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	it, ok := h.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *Handler) facets(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Facets())
}

func (h *Handler) refresh(c *gin.Context) {
	err := h.Refresher.Trigger()
	if errors.Is(err, scheduler.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"status": "busy"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (h *Handler) refreshStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Refresher.Status())
}

// multiValue accepts key=a&key=b as well as key=a,b.
func multiValue(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
