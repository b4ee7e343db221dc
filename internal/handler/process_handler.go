package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ocrbridge/internal/service"
)

// ProcessRequest is the body of POST /process. URL stays raw so an absent key
// can be told apart from one holding an empty or non-string value.
type ProcessRequest struct {
	URL json.RawMessage `json:"url"`
}

// ProcessHandler handles the image processing endpoint.
type ProcessHandler struct {
	processService service.ProcessService
	log            zerolog.Logger
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(processService service.ProcessService, log zerolog.Logger) *ProcessHandler {
	return &ProcessHandler{
		processService: processService,
		log:            log.With().Str("component", "process_handler").Logger(),
	}
}

// Process handles POST /process
func (h *ProcessHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.URL) == 0 {
		RespondError(c, http.StatusBadRequest, MsgMissingURL)
		return
	}

	var imageURL string
	if err := json.Unmarshal(req.URL, &imageURL); err != nil {
		HandleError(c, h.log, fmt.Errorf("invalid url %s: must be a string", req.URL))
		return
	}

	reply, err := h.processService.Process(c.Request.Context(), imageURL)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondRawJSON(c, reply)
}
