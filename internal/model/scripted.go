package model

import (
	"context"
	"fmt"
	"sync"
)

// Scripted is an offline provider returning canned responses in order,
// repeating the final response once exhausted. It backs tests and local
// demo runs where no model service is reachable.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []Request
}

// NewScripted creates a scripted provider with the given responses.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// Fail queues err to be returned before any remaining responses.
func (s *Scripted) Fail(errs ...error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, errs...)
	return s
}

func (s *Scripted) Name() string {
	return "scripted"
}

func (s *Scripted) Generate(_ context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}

	if len(s.responses) == 0 {
		return "", fmt.Errorf("scripted provider has no responses")
	}

	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

// Calls returns a copy of every request received so far.
func (s *Scripted) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.calls))
	copy(out, s.calls)
	return out
}
