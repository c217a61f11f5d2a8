// Package catalog serves the fragrance catalog over HTTP: listings,
// single-record lookup, brands and import run history.
package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"scentdb/internal/store"
)

type Handler struct {
	Store *store.SQLite
}

func NewHandler(s *store.SQLite) *Handler {
	return &Handler{Store: s}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/fragrances", h.list)        // GET /catalog/fragrances
	rg.GET("/fragrances/:id", h.getByID) // GET /catalog/fragrances/:id
	rg.GET("/brands", h.brands)          // GET /catalog/brands
	rg.GET("/runs", h.runs)              // GET /catalog/runs
}

func (h *Handler) list(c *gin.Context) {
	f := store.Filter{
		BrandID: c.Query("brand"),
		Gender:  c.Query("gender"),
		Query:   c.Query("q"),
		Limit:   parseInt(c.Query("limit"), 50),
		Offset:  parseInt(c.Query("offset"), 0),
	}

	total, err := h.Store.CountFragrances(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Store.ListFragrances(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id := c.Param("id")
	f, err := h.Store.GetFragrance(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) brands(c *gin.Context) {
	brands, err := h.Store.ListBrands(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": brands})
}

func (h *Handler) runs(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 20)
	runs, err := h.Store.ListRunReports(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
