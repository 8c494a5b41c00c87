package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayrates/internal/app/dto"
	quoteapp "stayrates/internal/app/handlers/quote"
	"stayrates/internal/app/queries"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
)

const dateLayout = "2006-01-02"

type QuoteHandler struct {
	Queries queries.Bus
}

func (h QuoteHandler) Listing(c *gin.Context) {
	checkIn, checkOut, ok := stayWindow(c)
	if !ok {
		return
	}
	query := quoteapp.ListingQuoteQuery{
		PropertyID:    c.Param("id"),
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		RoomCategory:  c.Query("room_category"),
		PlanType:      c.Query("plan_type"),
		OccupancyType: c.Query("occupancy_type"),
	}
	result, err := queries.Ask[quoteapp.ListingQuoteQuery, dto.ListingQuote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondQuoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h QuoteHandler) Stay(c *gin.Context) {
	checkIn, checkOut, ok := stayWindow(c)
	if !ok {
		return
	}
	var bookingDate time.Time
	if raw := c.Query("booking_date"); raw != "" {
		var err error
		bookingDate, err = time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking_date, want YYYY-MM-DD"})
			return
		}
	}
	query := quoteapp.StayQuoteQuery{
		PropertyID:    c.Param("id"),
		RoomCategory:  c.Query("room_category"),
		PlanType:      c.Query("plan_type"),
		OccupancyType: c.Query("occupancy_type"),
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		BookingDate:   bookingDate,
	}
	result, err := queries.Ask[quoteapp.StayQuoteQuery, dto.StayQuote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondQuoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func stayWindow(c *gin.Context) (checkIn, checkOut time.Time, ok bool) {
	var err error
	checkIn, err = time.Parse(dateLayout, c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_in, want YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	checkOut, err = time.Parse(dateLayout, c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_out, want YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	return checkIn, checkOut, true
}

func respondQuoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrNoPriceConfigured):
		c.JSON(http.StatusNotFound, gin.H{"error": "pricing not available for these dates or category"})
	case errors.Is(err, pricing.ErrInvalidDateRange),
		errors.Is(err, rates.ErrUnknownPlan),
		errors.Is(err, rates.ErrUnknownOccupancy),
		errors.Is(err, quoteapp.ErrMissingProperty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pricing.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pricing stores unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

var _ QuoteHTTP = QuoteHandler{}
