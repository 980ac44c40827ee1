package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type refundPayload struct {
	MerchantChargeID string `json:"merchantChargeId" validate:"required"`
}

// processRefund refunds a charge at the payment provider and marks the
// owning purchase refunded. Secret gating happens in middleware.
func processRefund(c echo.Context) error {
	var payload refundPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse refund input", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "merchantChargeId is required", err.Error())
	}

	re, err := deps.Refunds.RefundCharge(c.Request().Context(), payload.MerchantChargeID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "REFUND_ERROR", "Failed to process refund", err.Error())
	}
	return ok(c, echo.Map{"refund_id": re.ID, "status": string(re.Status)})
}
