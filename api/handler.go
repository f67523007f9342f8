// Package api serves the latest tracking state and recent plate records
// over HTTP.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/swdee/go-trafficwatch/record"
)

const (
	// DefaultRecordLimit is the number of records returned without a limit
	// query parameter
	DefaultRecordLimit = 20
	// MaxRecordLimit caps the records limit query parameter
	MaxRecordLimit = 100
)

// RecentRecords provides the most recent plate records, newest first
type RecentRecords interface {
	Recent(limit int) []record.Record
}

type Handler struct {
	state   *State
	records RecentRecords
	log     zerolog.Logger
}

func NewHandler(state *State, records RecentRecords, log zerolog.Logger) *Handler {
	return &Handler{
		state:   state,
		records: records,
		log:     log,
	}
}

// NewRouter returns a gin engine with CORS enabled and the handler's routes
// registered
func NewRouter(h *Handler) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery(), h.logRequest())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
	}))

	h.Register(r)

	return r
}

func (h *Handler) Register(r *gin.Engine) {

	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/tracks", h.listTracks)
		v1.GET("/records", h.listRecords)
		v1.GET("/counts", h.counts)
	}
}

func (h *Handler) health(c *gin.Context) {
	snap := h.state.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"run_id": snap.RunID,
		"frame":  snap.Frame,
	})
}

func (h *Handler) listTracks(c *gin.Context) {
	snap := h.state.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"frame":         snap.Frame,
		"time":          snap.Time,
		"lane_boundary": snap.LaneBoundary,
		"data":          snap.Tracks,
	})
}

func (h *Handler) listRecords(c *gin.Context) {

	limit := DefaultRecordLimit

	if l := strings.TrimSpace(c.Query("limit")); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, errorResponse("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	if limit > MaxRecordLimit {
		limit = MaxRecordLimit
	}

	records := []record.Record{}

	if h.records != nil {
		records = append(records, h.records.Recent(limit)...)
	}

	c.JSON(http.StatusOK, successResponse(records))
}

func (h *Handler) counts(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.state.Snapshot().Counts))
}

// logRequest logs each request at debug level
func (h *Handler) logRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		h.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
