package api

import (
	"errors"
	"net/http"

	resdto "ticketgate/internal/handler/dto/response"
	"ticketgate/internal/handler/httperr"
	"ticketgate/internal/pkg/errs"
	"ticketgate/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	syncCommands commands.SyncCommands
}

func NewSyncHandler(syncCommands commands.SyncCommands) *SyncHandler {
	return &SyncHandler{syncCommands: syncCommands}
}

// SyncNow triggers a manual drain of the offline queue.
func (h *SyncHandler) SyncNow(c *gin.Context) {
	report, err := h.syncCommands.SyncNow(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDeviceOffline):
			httperr.Conflict(c, err, "Device is offline")
		case errors.Is(err, errs.ErrSyncInProgress):
			httperr.Conflict(c, err, "Sync already in progress")
		default:
			httperr.Internal(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromSyncReport(report))
}

// Status reports the pending-sync indicator for the device UI.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, resdto.FromSyncStatus(h.syncCommands.Status()))
}
