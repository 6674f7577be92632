package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/proofstream/internal/llm"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var errEmptyResponse = errors.New("empty model response")

// Validate checks v against its validate struct tags.
func Validate(v any) error {
	return validate.Struct(v)
}

// parseJSON decodes the JSON object in a model response into T and checks it
// against T's validate tags.
func parseJSON[T any](text string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &v); err != nil {
		return v, fmt.Errorf("decode model json: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return v, fmt.Errorf("validate model json: %w", err)
	}
	return v, nil
}

// parseText accepts any non-blank response.
func parseText(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
