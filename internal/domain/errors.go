package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDownloadFailed        = errors.New("image download failed")
	ErrExtractionFailed      = errors.New("document text extraction failed")
	ErrAssistantSubmitFailed = errors.New("sending text to the assistant failed")
	ErrAssistantProcessing   = errors.New("assistant processing failed")
	ErrPollTimeout           = errors.New("timed out waiting for the assistant to finish")
	ErrNoReply               = errors.New("no reply received from the assistant")
	ErrMalformedReply        = errors.New("assistant reply is not in the expected format")
)

// JSONDecodeError reports that the cleaned assistant reply is not valid JSON.
type JSONDecodeError struct {
	Err     error
	Cleaned string
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("JSON decode error: %v", e.Err)
}

func (e *JSONDecodeError) Unwrap() error {
	return e.Err
}
