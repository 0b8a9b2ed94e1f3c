package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gaswatch-project/gaswatch/web/models"
	"github.com/gaswatch-project/gaswatch/web/services"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

type JSONReadingRequest struct {
	DeviceID  string     `json:"deviceId"`
	GasLevel  *int64     `json:"gas_level"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type JSONReading struct {
	ID        uint   `json:"id"`
	DeviceID  string `json:"deviceId"`
	GasLevel  int64  `json:"gas_level"`
	Timestamp string `json:"timestamp"`
}

func NewJSONReading(r models.Reading) JSONReading {
	return JSONReading{
		ID:        r.ID,
		DeviceID:  r.DeviceID,
		GasLevel:  r.GasLevel,
		Timestamp: r.CapturedAt.UTC().Format(timestampLayout),
	}
}

// CreateReadingHandler godoc
// @Summary Store a sensor reading
// @Accept json
// @Produce json
// @Param Body body JSONReadingRequest true "The reading"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /mediciones [post]
func CreateReadingHandler(ingestionService *services.IngestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var r JSONReadingRequest

		if err := c.ShouldBindJSON(&r); err != nil {
			_ = c.Error(services.NewValidationError("unable to parse JSON body: %s", err))
			return
		}

		input := services.ReadingInput{
			DeviceID: r.DeviceID,
			GasLevel: r.GasLevel,
		}
		if r.Timestamp != nil {
			input.CapturedAt = *r.Timestamp
		}

		if _, err := ingestionService.Ingest(c.Request.Context(), input); err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"status": "ok"})
	}
}

// ListReadingsHandler godoc
// @Summary List the most recent readings, newest first
// @Produce json
// @Param limit query int false "Maximum number of readings (1-100)"
// @Success 200 {object} []JSONReading
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /mediciones [get]
func ListReadingsHandler(readingsService *services.ReadingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.MaxListLimit)))
		if err != nil {
			_ = c.Error(services.NewValidationError("limit must be an integer"))
			return
		}

		readings, err := readingsService.ListRecent(c.Request.Context(), limit)
		if err != nil {
			_ = c.Error(err)
			return
		}

		jsonReadings := make([]JSONReading, 0, len(readings))
		for _, r := range readings {
			jsonReadings = append(jsonReadings, NewJSONReading(r))
		}

		c.JSON(http.StatusOK, jsonReadings)
	}
}
