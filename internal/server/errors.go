package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commercedomain "github.com/smallbiznis/stocksync/internal/commerce/domain"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	syncdomain "github.com/smallbiznis/stocksync/internal/sync/domain"
)

// AbortWithError maps domain errors to HTTP responses.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledgerdomain.ErrRecordNotFound),
		errors.Is(err, ledgerdomain.ErrAlertNotFound),
		errors.Is(err, commercedomain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, syncdomain.ErrNotLinked):
		status = http.StatusConflict
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func invalidRequestError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
}
