package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"setrag/internal/database"
	apperrors "setrag/internal/errors"
	"setrag/internal/logger"
	"setrag/internal/models"
)

// HealthChecker is satisfied by *database.DB
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthCheck
}

func health(c *gin.Context, service string, db HealthChecker) {
	resp := models.HealthResponse{Status: "healthy", Service: service}
	if db != nil {
		hc := db.HealthCheck(c.Request.Context())
		resp.Database = hc
		if hc.Status != "healthy" {
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// held seats come back as holds expire, downstream outages are usually brief
const retryAfterSeconds = "5"

// respondError writes the JSON error body for err. Server-side failures
// expose only the class of error. Retryable ones carry Retry-After.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.Code(err)
	_ = c.Error(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if sentinel := apperrors.FromCode(code); sentinel != nil {
			msg = sentinel.Error()
		} else {
			msg = "Internal server error"
		}
		logger.WithContext(c.Request.Context()).Error("Request failed", "code", code, "error", err)
	}

	if apperrors.Retryable(err) {
		c.Header("Retry-After", retryAfterSeconds)
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg, Code: code})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: msg, Code: apperrors.CodeValidation})
}

func parseTripID(c *gin.Context) (int64, bool) {
	tripID, err := strconv.ParseInt(c.Param("trip_id"), 10, 64)
	if err != nil || tripID <= 0 {
		badRequest(c, "trip_id must be a positive integer")
		return 0, false
	}
	return tripID, true
}

// queryInt reads an optional integer query parameter within [min, max].
func queryInt(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		badRequest(c, name+" must be an integer between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
		return 0, false
	}
	return v, true
}
