package handler

import (
	"net/http"

	"guardian/internal/catalog"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

type LibraryHandler struct {
	svc *service.LibraryService
	cat *catalog.Catalog
}

func NewLibraryHandler(svc *service.LibraryService, cat *catalog.Catalog) *LibraryHandler {
	return &LibraryHandler{svc: svc, cat: cat}
}

// GET /api/library?category=&q=
func (h *LibraryHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.cat.Forms.ArticleCategories,
		"articles":   h.svc.Search(c.Query("category"), c.Query("q")),
	})
}

// GET /api/library/:id
func (h *LibraryHandler) Get(c *gin.Context) {
	a, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// POST /api/library/:id/read
func (h *LibraryHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), scope(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DELETE /api/library/:id/read
func (h *LibraryHandler) Unread(c *gin.Context) {
	if err := h.svc.Unread(c.Request.Context(), scope(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/library/progress
func (h *LibraryHandler) Progress(c *gin.Context) {
	p, err := h.svc.Progress(c.Request.Context(), scope(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
