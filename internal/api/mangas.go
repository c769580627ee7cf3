package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangascraper/internal/schema"
	"mangascraper/internal/scraper"
)

const scrapeFailedMessage = "An error occurred during scraping."

// HandleScrape handles POST /mangas.
func (s *Server) HandleScrape(c *gin.Context) {
	var req scraper.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body.", "details": err.Error()})
		return
	}

	resp, err := s.scraper.Scrape(c.Request.Context(), req)
	if err != nil {
		s.handleScrapeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleScrapeError(c *gin.Context, err error) {
	var (
		unknownSource *schema.UnknownSourceError
		unknownPage   *schema.UnknownPageError
	)
	switch {
	case errors.As(err, &unknownSource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "supportedPlatforms": unknownSource.Supported})
	case errors.As(err, &unknownPage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "supportedPages": unknownPage.Supported})
	case errors.Is(err, scraper.ErrSlugRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": scrapeFailedMessage, "details": err.Error()})
	}
}
