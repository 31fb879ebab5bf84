package gateway

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Problem is the gateway's problem+json error body.
type Problem struct {
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	Status   int             `json:"status"`
	Detail   string          `json:"detail"`
	Instance string          `json:"instance"`
	Problems []ProblemDetail `json:"problems"`
}

type ProblemDetail struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StatusError is a non-2xx gateway answer.
type StatusError struct {
	StatusCode int
	Problem    Problem
	Body       []byte
}

func newStatusError(resp *RawResponse) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	_ = sonic.Unmarshal(resp.Body, &se.Problem)
	return se
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: HTTP %d: %s", e.StatusCode, e.Message())
}

// Message is the most specific human readable text in the problem body.
func (e *StatusError) Message() string {
	p := e.Problem
	msg := p.Detail
	if msg == "" {
		msg = p.Title
	}
	if len(p.Problems) > 0 {
		parts := make([]string, 0, len(p.Problems))
		for _, d := range p.Problems {
			parts = append(parts, fmt.Sprintf("%s: %s", d.Name, d.Description))
		}
		if msg != "" {
			msg += " "
		}
		msg += "(" + strings.Join(parts, "; ") + ")"
	}
	if msg == "" {
		msg = strings.TrimSpace(string(e.Body))
	}
	return msg
}
