package booking

import (
	"net/http"

	"barbershop/internal/api"
	"barbershop/internal/auth"
	"barbershop/internal/logger"
	"barbershop/internal/validation"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      Create booking
// @Description  Validates the request and stores a Pending booking. The slot is not reserved until payment succeeds.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body booking.CreateBookingRequest true "Booking payload"
// @Success      201 {object} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, b)
}

// @Summary      List bookings
// @Tags         bookings
// @Produce      json
// @Param        phone query string false "Filter by customer phone"
// @Success      200 {array} booking.Booking
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/bookings [get]
// @Router       /admin/bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), c.Query("phone"))
	if err != nil {
		respondError(c, err, "Failed to fetch bookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// @Summary      Available slots
// @Description  Slots for the date not held by a Paid or Completed booking. stale=true means the store could not be read and every slot is listed.
// @Tags         bookings
// @Produce      json
// @Param        date query string true "Date (YYYY-MM-DD)"
// @Success      200 {object} booking.Availability
// @Failure      400 {object} api.ErrorResponse
// @Router       /api/bookings/availability [get]
func (h *Handler) AvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date query parameter is required"})
		return
	}

	availability, err := h.service.AvailableSlots(c.Request.Context(), date)
	if err != nil {
		respondError(c, err, "Failed to fetch available slots")
		return
	}

	c.JSON(http.StatusOK, availability)
}

// @Summary      Get booking
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      404 {object} api.ErrorResponse
// @Router       /api/bookings/{id} [get]
// @Router       /admin/bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch booking")
		return
	}

	c.JSON(http.StatusOK, b)
}

// @Summary      Update booking status
// @Description  Admin-only: mark a Paid booking Completed, or cancel a booking.
// @Tags         admin,bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Param        request body booking.UpdateStatusRequest true "New status"
// @Success      200 {object} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/bookings/{id}/status [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := validation.Struct(req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: errs[0].Message})
		return
	}

	id := c.Param("id")
	b, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update booking")
		return
	}

	logger.WithFields(map[string]interface{}{
		"admin":      actingAdmin(c),
		"booking_id": id,
		"status":     b.Status,
	}).Info("admin changed booking status")
	c.JSON(http.StatusOK, b)
}

// @Summary      Delete booking
// @Tags         admin,bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/bookings/{id} [delete]
func (h *Handler) DeleteBooking(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete booking")
		return
	}

	logger.Info("admin deleted booking", "admin", actingAdmin(c), "booking_id", id)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Booking deleted"})
}

func respondError(c *gin.Context, err error, fallback string) {
	status, msg := HTTPError(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error(fallback, "path", c.FullPath())
		msg = fallback
	}
	c.JSON(status, api.ErrorResponse{Error: msg})
}

func actingAdmin(c *gin.Context) string {
	if name, ok := auth.GetUsername(c); ok {
		return name
	}
	return "unknown"
}
