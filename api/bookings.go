package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type lineItemResponse struct {
	DishID     int64  `json:"dish_id"`
	DishName   string `json:"dish_name,omitempty"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type bookingResponse struct {
	ID           int64              `json:"id"`
	UserID       int64              `json:"user_id"`
	CafeID       int64              `json:"cafe_id"`
	TableID      int64              `json:"table_id"`
	SlotID       int64              `json:"slot_id"`
	Date         string             `json:"date"`
	Status       string             `json:"status"`
	Note         *string            `json:"note,omitempty"`
	ReminderSent bool               `json:"reminder_sent"`
	Dishes       []lineItemResponse `json:"dishes"`
	TotalCents   int64              `json:"total_cents"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) list(c *gin.Context) {
	req, err := requesterFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var input booking.ListBookingsInput
	if err := c.ShouldBindQuery(&input); err != nil {
		writeError(c, domain.Errorf(domain.ErrInvalidArgument, "%v", err))
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), req, input)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) create(c *gin.Context) {
	req, err := requesterFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, domain.Errorf(domain.ErrInvalidArgument, "%v", err))
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), req, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	req, id, ok := requestTarget(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), req, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) update(c *gin.Context) {
	req, id, ok := requestTarget(c)
	if !ok {
		return
	}
	var input booking.UpdateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, domain.Errorf(domain.ErrInvalidArgument, "%v", err))
		return
	}

	b, err := h.service.UpdateBooking(c.Request.Context(), req, id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	req, id, ok := requestTarget(c)
	if !ok {
		return
	}
	b, err := h.service.CancelBooking(c.Request.Context(), req, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// requestTarget resolves the requester and the :id path parameter, writing the
// error response itself when either is missing.
func requestTarget(c *gin.Context) (domain.Requester, int64, bool) {
	req, err := requesterFrom(c)
	if err != nil {
		writeError(c, err)
		return req, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, domain.Errorf(domain.ErrInvalidArgument, "invalid id %q", c.Param("id")))
		return req, 0, false
	}
	return req, id, true
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	dishes := make([]lineItemResponse, 0, len(b.LineItems))
	for _, li := range b.LineItems {
		dishes = append(dishes, lineItemResponse{
			DishID:     li.DishID,
			DishName:   li.DishName,
			Quantity:   li.Quantity,
			PriceCents: li.PriceCents,
		})
	}
	return bookingResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		CafeID:       b.CafeID,
		TableID:      b.TableID,
		SlotID:       b.SlotID,
		Date:         b.Date.Format(domain.DateLayout),
		Status:       string(b.Status),
		Note:         b.Note,
		ReminderSent: b.ReminderSent,
		Dishes:       dishes,
		TotalCents:   b.TotalCents(),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    b.UpdatedAt.Format(time.RFC3339),
	}
}
