package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	commercedomain "github.com/smallbiznis/stocksync/internal/commerce/domain"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	syncdomain "github.com/smallbiznis/stocksync/internal/sync/domain"
)

// RunSync triggers a manual full sync and returns the run summary.
func (s *Server) RunSync(c *gin.Context) {
	summary, err := s.syncSvc.SyncAll(c.Request.Context(), syncdomain.TriggerManual)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// SyncProduct reconciles one product on demand.
func (s *Server) SyncProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		invalidRequestError(c)
		return
	}
	if err := s.syncSvc.SyncProduct(c.Request.Context(), productID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

type updateStockRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateStock records a commerce-side stock mutation and hands it to
// the sync engine.
func (s *Server) UpdateStock(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		invalidRequestError(c)
		return
	}
	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		invalidRequestError(c)
		return
	}
	if err := s.syncSvc.HandleStockChange(c.Request.Context(), productID, *req.Quantity); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// OrderCompleted receives a completed order event from the commerce
// side.
func (s *Server) OrderCompleted(c *gin.Context) {
	var order commercedomain.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		invalidRequestError(c)
		return
	}
	if err := s.syncSvc.HandleOrderCompleted(c.Request.Context(), order); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// ListAlerts returns stock alerts, optionally filtered by status.
func (s *Server) ListAlerts(c *gin.Context) {
	status := ledgerdomain.AlertStatus(c.Query("status"))
	alerts, err := s.repo.ListAlerts(c.Request.Context(), status, 100)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

// DismissAlert marks an alert as dismissed.
func (s *Server) DismissAlert(c *gin.Context) {
	alertID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		invalidRequestError(c)
		return
	}
	if err := s.monitor.Dismiss(c.Request.Context(), alertID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dismissed"})
}

// ListChanges returns the quantity transition log, newest first.
func (s *Server) ListChanges(c *gin.Context) {
	var productID int64
	if raw := c.Query("product_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			invalidRequestError(c)
			return
		}
		productID = parsed
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			invalidRequestError(c)
			return
		}
		limit = parsed
	}
	entries, err := s.repo.ListChanges(c.Request.Context(), productID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
