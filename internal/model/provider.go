// Package model wraps the external model service behind a narrow boundary:
// send an instruction plus a JSON-serializable payload, receive text that
// should parse as JSON.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is one generation call. Payload, when non-nil, is serialized to
// JSON and appended to the instruction.
type Request struct {
	Instruction string
	Payload     any
	Temperature float32
	MaxTokens   int
}

// Provider defines the model-service contract.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Prompt renders the request into the single text block sent to the service.
func (r Request) Prompt() (string, error) {
	instruction := strings.TrimSpace(r.Instruction)
	if r.Payload == nil {
		return instruction, nil
	}

	data, err := json.Marshal(r.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	return instruction + "\n" + string(data), nil
}

// Transient reports whether err looks like a rate-limit or quota signal
// worth retrying. Provider SDKs surface these inconsistently, so the check
// sniffs the error text.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429",
		"529",
		"resource_exhausted",
		"quota",
		"rate limit",
		"overloaded",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
