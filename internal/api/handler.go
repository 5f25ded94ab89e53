package api

import (
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"room-status-backend/config"
	"room-status-backend/internal/ledger"
	"room-status-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	ledger  *ledger.Service
	auth    *config.AuthConfig
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, l *ledger.Service, authCfg *config.AuthConfig, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		ledger:  l,
		auth:    authCfg,
		webpush: webpushOptions,
	}
}

// abortWithLedgerError maps the ledger error taxonomy onto HTTP statuses and
// writes the structured error body the frontend expects.
func abortWithLedgerError(c *gin.Context, err error) {
	kind := ledger.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case ledger.KindInvalidInput:
		status = http.StatusBadRequest
	case ledger.KindLimitExceeded:
		status = http.StatusUnprocessableEntity
	case ledger.KindConflict:
		status = http.StatusConflict
	case ledger.KindNotFound:
		status = http.StatusNotFound
	case ledger.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	c.AbortWithStatusJSON(status, gin.H{
		"message": err.Error(),
		"kind":    string(kind),
	})
}
