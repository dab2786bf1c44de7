package server

import (
	"errors"
	"net/http"

	"sales-rfm/pkg/chart"
	"sales-rfm/pkg/logger"
	"sales-rfm/pkg/models"
	"sales-rfm/pkg/rfm"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      http.StatusOK,
		Message:   "OK",
		Data:      data,
		RequestID: c.GetString(requestIDKey),
	})
}

// Fail answers with the status that matches err. Internal errors are logged
// and their detail is not returned to the client.
func Fail(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, Response{
		Code:      status,
		Message:   http.StatusText(status),
		Error:     msg,
		RequestID: c.GetString(requestIDKey),
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrBadDate), errors.Is(err, models.ErrInvalidRange), errors.Is(err, errBadParam):
		return http.StatusBadRequest
	case errors.Is(err, chart.ErrUnknownChart):
		return http.StatusNotFound
	case errors.Is(err, rfm.ErrDegenerateBins):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
