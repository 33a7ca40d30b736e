package api

import (
	"net/http"

	reqdto "ticketgate/internal/handler/dto/request"
	resdto "ticketgate/internal/handler/dto/response"
	"ticketgate/internal/handler/httperr"
	"ticketgate/internal/handler/middleware"
	"ticketgate/internal/pkg/errs"
	"ticketgate/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type ScanHandler struct {
	scanCommands commands.ScanCommands
}

func NewScanHandler(scanCommands commands.ScanCommands) *ScanHandler {
	return &ScanHandler{scanCommands: scanCommands}
}

// Scan validates a scanned code and, when admissible, runs the conditional
// check-in commit. A decided scan is always 200: the outcome kind carries
// the verdict, including rejections.
func (h *ScanHandler) Scan(c *gin.Context) {
	auth, ok := middleware.GetAuthorization(c)
	if !ok {
		httperr.Internal(c, errs.New("authorization missing from context"))
		return
	}

	var req reqdto.ScanRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.BadRequest(c, bindErr)
		return
	}

	outcome := h.scanCommands.Scan(c.Request.Context(), req.Code, auth)
	c.JSON(http.StatusOK, resdto.FromScanOutcome(outcome))
}

// ConfirmPayment is the explicit operator action that settles a
// pay-at-venue ticket and admits it in one conditional commit.
func (h *ScanHandler) ConfirmPayment(c *gin.Context) {
	auth, ok := middleware.GetAuthorization(c)
	if !ok {
		httperr.Internal(c, errs.New("authorization missing from context"))
		return
	}

	code := c.Param("code")

	var req reqdto.ConfirmPaymentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.BadRequest(c, bindErr)
		return
	}

	outcome := h.scanCommands.ConfirmPayment(c.Request.Context(), code, req.PaymentRef, auth)
	c.JSON(http.StatusOK, resdto.FromScanOutcome(outcome))
}
