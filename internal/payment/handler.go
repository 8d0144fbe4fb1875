package payment

import (
	"errors"
	"net/http"

	"barbershop/internal/api"
	"barbershop/internal/chapa"
	"barbershop/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Start booking payment
// @Description  Creates a Pending booking (or reuses one via booking_id) with a new tx_ref and returns the gateway checkout URL.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body payment.InitiateRequest true "Booking and amount"
// @Success      200 {object} payment.InitiateResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/payment/initialize-booking [post]
func (h *Handler) InitializeBooking(c *gin.Context) {
	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.Initiate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to initialize payment")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary      Verify booking payment
// @Description  Re-checks the transaction with the gateway and marks the booking Paid.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body payment.VerifyRequest true "Transaction reference"
// @Success      200 {object} payment.VerifyResponse
// @Failure      400 {object} payment.VerifyResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/payment/verify-booking [post]
func (h *Handler) VerifyBooking(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	b, err := h.service.Verify(c.Request.Context(), req.TxRef)
	if errors.Is(err, ErrPaymentFailed) {
		c.JSON(http.StatusBadRequest, VerifyResponse{Status: "failed", Message: "Payment verification failed"})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to verify payment")
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Status:  "success",
		Message: "Payment verified successfully",
		Booking: receiptFor(b, true),
	})
}

// @Summary      Payment gateway callback
// @Description  Accepts tx_ref (or trx_ref) and status from the gateway. status=success marks the booking Paid; anything else marks the payment failed.
// @Tags         payments
// @Produce      json
// @Param        tx_ref query string false "Transaction reference"
// @Param        trx_ref query string false "Transaction reference (alias)"
// @Param        status query string false "Gateway status"
// @Success      200 {object} payment.WebhookResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/payment/verify-booking [get]
func (h *Handler) Webhook(c *gin.Context) {
	txRef := c.Query("tx_ref")
	if txRef == "" {
		txRef = c.Query("trx_ref")
	}
	status := c.Query("status")

	b, err := h.service.HandleWebhook(c.Request.Context(), txRef, status)
	if err != nil {
		respondError(c, err, "Webhook processing failed")
		return
	}

	resp := WebhookResponse{Status: "processed"}
	if status == chapa.StatusSuccess {
		resp.Booking = receiptFor(b, false)
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Payment status for the return page
// @Description  Like verify, but a gateway timeout returns status=success with verified=false and leaves the booking unchanged.
// @Tags         payments
// @Produce      json
// @Param        tx_ref query string true "Transaction reference"
// @Success      200 {object} payment.ReturnStatus
// @Failure      400 {object} payment.VerifyResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/payment/return-status [get]
func (h *Handler) ReturnStatus(c *gin.Context) {
	status, err := h.service.ReturnStatus(c.Request.Context(), c.Query("tx_ref"))
	if errors.Is(err, ErrPaymentFailed) {
		c.JSON(http.StatusBadRequest, VerifyResponse{Status: "failed", Message: "Payment verification failed"})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to check payment status")
		return
	}

	c.JSON(http.StatusOK, status)
}

func respondError(c *gin.Context, err error, fallback string) {
	status, msg := HTTPError(err)
	if status == http.StatusInternalServerError {
		var gerr *GatewayError
		if !errors.As(err, &gerr) {
			logger.Error(fallback, "error", err.Error(), "path", c.FullPath())
			msg = fallback
		}
	}
	c.JSON(status, api.ErrorResponse{Error: msg})
}
