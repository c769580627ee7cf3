package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangascraper/internal/store"
)

const preferencesNotFound = "Preferences not found."

func bindPreferences(c *gin.Context) (store.PreferenceInput, bool) {
	var in store.PreferenceInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return in, false
	}
	return in, true
}

// HandleGetPreferences handles GET /api/preferences/:userId. Missing
// preferences are created with defaults and returned with 201.
func (s *Server) HandleGetPreferences(c *gin.Context) {
	p, created, err := s.store.GetOrCreatePreference(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.handleStoreError(c, err, preferencesNotFound)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, p)
}

// HandleCreatePreferences handles POST /api/preferences/:userId.
func (s *Server) HandleCreatePreferences(c *gin.Context) {
	in, ok := bindPreferences(c)
	if !ok {
		return
	}
	p, err := s.store.CreatePreference(c.Request.Context(), c.Param("userId"), in)
	if err != nil {
		s.handleStoreError(c, err, preferencesNotFound)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// HandleUpdatePreferences handles PUT /api/preferences/:userId.
func (s *Server) HandleUpdatePreferences(c *gin.Context) {
	in, ok := bindPreferences(c)
	if !ok {
		return
	}
	p, err := s.store.UpdatePreference(c.Request.Context(), c.Param("userId"), in)
	if err != nil {
		s.handleStoreError(c, err, preferencesNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}

// HandleDeletePreferences handles DELETE /api/preferences/:userId.
func (s *Server) HandleDeletePreferences(c *gin.Context) {
	if err := s.store.DeletePreference(c.Request.Context(), c.Param("userId")); err != nil {
		s.handleStoreError(c, err, preferencesNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preferences deleted."})
}

// HandleUpsertPreferences handles POST /api/preferences/upsert/:userId.
func (s *Server) HandleUpsertPreferences(c *gin.Context) {
	in, ok := bindPreferences(c)
	if !ok {
		return
	}
	p, err := s.store.UpsertPreference(c.Request.Context(), c.Param("userId"), in)
	if err != nil {
		s.handleStoreError(c, err, preferencesNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}
