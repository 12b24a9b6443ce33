package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListNews(c *gin.Context) {
	listing, err := s.news.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		s.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) handleGetNews(c *gin.Context) {
	article, err := s.news.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, article)
}

// handleStatus relays the backend's model status table
func (s *Server) handleStatus(c *gin.Context) {
	status, err := s.backend.Status(c.Request.Context())
	if err != nil {
		s.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, status)
}
