// Package client talks to the Atlas recognition and chat endpoints.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrMalformedResponse = errors.New("malformed response")

// Upload is the image payload sent for recognition.
type Upload struct {
	Filename  string
	MediaType string
	Data      []byte
}

// AnalyzeResponse is the body of POST /analyze-landmark.
type AnalyzeResponse struct {
	Found         bool     `json:"found"`
	Name          string   `json:"name,omitempty" validate:"required_if=Found true"`
	Confidence    *float64 `json:"confidence,omitempty" validate:"required_if=Found true"`
	AIDescription string   `json:"ai_description,omitempty" validate:"required_if=Found true"`
	Progress      any      `json:"progress,omitempty"`
	Message       string   `json:"message,omitempty"`
}

type chatRequest struct {
	MonumentName string `json:"monument_name"`
	Question     string `json:"question"`
}

type chatResponse struct {
	Reply string `json:"reply" validate:"required"`
}

// Recognizer maps an image to a landmark candidate.
type Recognizer interface {
	Analyze(ctx context.Context, upload Upload) (*AnalyzeResponse, error)
}

// Responder answers one question about a subject.
type Responder interface {
	Reply(ctx context.Context, subject, question string) (string, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func check(endpoint string, v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%s: %w: %v", endpoint, ErrMalformedResponse, err)
	}
	return nil
}
