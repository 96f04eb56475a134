package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hwstore/hwstore-server/internal/weather"
)

// WeatherHandlers proxies the weather widget's lookups.
type WeatherHandlers struct {
	client *weather.Client
	log    *zerolog.Logger
}

// NewWeatherHandlers creates a new weather handlers instance.
func NewWeatherHandlers(client *weather.Client, logger *zerolog.Logger) *WeatherHandlers {
	return &WeatherHandlers{client: client, log: logger}
}

// Current returns current conditions for a city.
// GET /api/weather/:city
func (h *WeatherHandlers) Current(c *gin.Context) {
	if h.client == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: weather.ErrMissingAPIKey.Error()})
		return
	}

	city := c.Param("city")
	body, err := h.client.Current(c.Request.Context(), city)
	if err != nil {
		var upstream *weather.UpstreamError
		switch {
		case errors.Is(err, weather.ErrMissingAPIKey):
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: weather.ErrMissingAPIKey.Error()})
		case errors.As(err, &upstream):
			c.Data(upstream.Status, "application/json; charset=utf-8", upstream.Body)
		default:
			h.log.Error().Err(err).Str("city", city).Msg("failed to fetch weather")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch weather"})
		}
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
