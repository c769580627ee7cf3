package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangascraper/internal/store"
)

// CreateLibraryRequest is the body of POST /api/library.
type CreateLibraryRequest struct {
	UserID string `json:"userId" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

// AddItemRequest is the body of POST /api/library/:libraryId/manga.
type AddItemRequest struct {
	Slug     string `json:"slug" binding:"required"`
	Domain   string `json:"domain" binding:"required"`
	Progress *int   `json:"progress"`
}

// UpdateItemRequest is the body of PUT /api/library/manga/:itemId.
type UpdateItemRequest struct {
	Slug     *string `json:"slug"`
	Domain   *string `json:"domain"`
	Progress *int    `json:"progress"`
}

// handleStoreError maps store errors to HTTP responses.
func (s *Server) handleStoreError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
	case errors.Is(err, store.ErrAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Preferences already exist."})
	default:
		s.logger.Error("store operation failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
	}
}

// HandleListLibraries handles GET /api/library/user/:userId.
func (s *Server) HandleListLibraries(c *gin.Context) {
	libs, err := s.store.ListLibraries(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.handleStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, libs)
}

// HandleGetLibrary handles GET /api/library/:libraryId.
func (s *Server) HandleGetLibrary(c *gin.Context) {
	lib, err := s.store.GetLibrary(c.Request.Context(), c.Param("libraryId"))
	if err != nil {
		s.handleStoreError(c, err, "Library not found.")
		return
	}
	c.JSON(http.StatusOK, lib)
}

// HandleCreateLibrary handles POST /api/library.
func (s *Server) HandleCreateLibrary(c *gin.Context) {
	var req CreateLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	lib, err := s.store.CreateLibrary(c.Request.Context(), req.UserID, req.Name)
	if err != nil {
		s.handleStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, lib)
}

// HandleAddItem handles POST /api/library/:libraryId/manga.
func (s *Server) HandleAddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	progress := 0
	if req.Progress != nil {
		progress = *req.Progress
	}

	item, err := s.store.AddItem(c.Request.Context(), c.Param("libraryId"), req.Slug, req.Domain, progress)
	if err != nil {
		s.handleStoreError(c, err, "Library not found.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// HandleUpdateItem handles PUT /api/library/manga/:itemId.
func (s *Server) HandleUpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	item, err := s.store.UpdateItem(c.Request.Context(), c.Param("itemId"), store.ItemUpdate{
		Slug:     req.Slug,
		Domain:   req.Domain,
		Progress: req.Progress,
	})
	if err != nil {
		s.handleStoreError(c, err, "Manga not found.")
		return
	}
	c.JSON(http.StatusOK, item)
}

// HandleDeleteItem handles DELETE /api/library/manga/:itemId.
func (s *Server) HandleDeleteItem(c *gin.Context) {
	if err := s.store.DeleteItem(c.Request.Context(), c.Param("itemId")); err != nil {
		s.handleStoreError(c, err, "Manga not found.")
		return
	}
	c.Status(http.StatusNoContent)
}
