package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/service/availability"
	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	service availability.AvailabilityUseCase
}

type slotResponse struct {
	SlotID     int64          `json:"slot_id"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Date       string         `json:"date"`
	FreeTables []domain.Table `json:"free_tables"`
}

func NewAvailabilityHandler(service availability.AvailabilityUseCase) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

func (h *AvailabilityHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/availability", h.get)
}

func (h *AvailabilityHandler) get(c *gin.Context) {
	cafeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || cafeID <= 0 {
		writeError(c, domain.Errorf(domain.ErrInvalidArgument, "invalid cafe id %q", c.Param("id")))
		return
	}
	date := c.Query("date")
	if date == "" {
		writeError(c, domain.Errorf(domain.ErrInvalidArgument, "date is required"))
		return
	}

	slots, err := h.service.Availability(c.Request.Context(), cafeID, date)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{
			SlotID:     s.Slot.ID,
			StartTime:  s.Slot.StartTime,
			EndTime:    s.Slot.EndTime,
			Date:       s.Date.Format(domain.DateLayout),
			FreeTables: s.FreeTables,
		})
	}
	c.JSON(http.StatusOK, out)
}
