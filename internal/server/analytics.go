package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetRevenueMetrics(c *gin.Context) {
	resp, err := s.analyticsSvc.RevenueMetrics(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type revenuePulseQuery struct {
	Year     *int   `form:"year" binding:"omitempty,min=1"`
	Currency string `form:"currency"`
}

// GetRevenuePulse returns totals by issue month; year 0 means the current year.
func (s *Server) GetRevenuePulse(c *gin.Context) {
	var query revenuePulseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, newValidationError("year", "invalid_year", "invalid year"))
		return
	}

	year := 0
	if query.Year != nil {
		year = *query.Year
	}
	resp, err := s.analyticsSvc.RevenuePulse(c.Request.Context(), year, query.Currency)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListClientBalances(c *gin.Context) {
	resp, err := s.analyticsSvc.ClientBalances(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recentInvoicesQuery struct {
	Limit *int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (s *Server) ListRecentInvoices(c *gin.Context) {
	var query recentInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be between 1 and 100"))
		return
	}

	limit := 0
	if query.Limit != nil {
		limit = *query.Limit
	}
	resp, err := s.analyticsSvc.RecentInvoices(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
