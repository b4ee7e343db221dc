package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ocrbridge/internal/domain"
)

// Client-facing error messages.
const (
	MsgMissingURL     = "Missing URL in request"
	MsgDownloadFailed = "Image download failed"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorBody{Error: msg})
}

// RespondRawJSON sends a 200 response whose body is already-encoded JSON.
func RespondRawJSON(c *gin.Context, body []byte) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// MapProcessError translates pipeline errors to an HTTP status code and the
// message returned to the client.
func MapProcessError(err error) (status int, msg string) {
	var decodeErr *domain.JSONDecodeError
	switch {
	case errors.Is(err, domain.ErrDownloadFailed):
		return http.StatusBadRequest, MsgDownloadFailed
	case errors.As(err, &decodeErr):
		return http.StatusInternalServerError, decodeErr.Error()
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusInternalServerError, domain.ErrExtractionFailed.Error()
	case errors.Is(err, domain.ErrAssistantSubmitFailed):
		return http.StatusInternalServerError, domain.ErrAssistantSubmitFailed.Error()
	case errors.Is(err, domain.ErrPollTimeout):
		return http.StatusInternalServerError, domain.ErrPollTimeout.Error()
	case errors.Is(err, domain.ErrAssistantProcessing):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, domain.ErrNoReply):
		return http.StatusInternalServerError, domain.ErrNoReply.Error()
	case errors.Is(err, domain.ErrMalformedReply):
		return http.StatusInternalServerError, domain.ErrMalformedReply.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// HandleError maps a pipeline error and sends the appropriate error response.
func HandleError(c *gin.Context, log zerolog.Logger, err error) {
	status, msg := MapProcessError(err)
	requestID, _ := c.Get("request_id")
	evt := log.Warn()
	if status >= 500 {
		evt = log.Error()
	}
	evt.Err(err).Interface("request_id", requestID).Int("status", status).Msg("request failed")
	RespondError(c, status, msg)
}
