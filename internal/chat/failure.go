package chat

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// FailureClass categorizes why a Generator call failed.
type FailureClass int

const (
	FailureUnknown FailureClass = iota
	// FailureInvalidKey means the API key is missing, invalid, or lacks permissions.
	FailureInvalidKey
	// FailureQuota means the provider rate-limited or the quota is exhausted.
	FailureQuota
	// FailureTransient covers network errors and provider 5xx responses.
	FailureTransient
	// FailureTimeout means the per-call deadline passed.
	FailureTimeout
	// FailureEmpty means the provider answered without usable text.
	FailureEmpty
)

func (c FailureClass) String() string {
	switch c {
	case FailureInvalidKey:
		return "invalid_key"
	case FailureQuota:
		return "quota"
	case FailureTransient:
		return "transient"
	case FailureTimeout:
		return "timeout"
	case FailureEmpty:
		return "empty_response"
	default:
		return "unknown"
	}
}

// ClassifyFailure inspects provider error types first and falls back to
// message patterns for errors that lost their type on the way.
func ClassifyFailure(err error) FailureClass {
	if err == nil {
		return FailureUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	// genai returns APIError by value; pointers are accepted too.
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return classifyStatus(geminiErr.Code)
	}
	var geminiPtr *genai.APIError
	if errors.As(err, &geminiPtr) {
		return classifyStatus(geminiPtr.Code)
	}
	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return classifyStatus(openaiErr.HTTPStatusCode)
	}
	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return classifyStatus(requestErr.HTTPStatusCode)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key not valid") ||
		strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "api_key_invalid") ||
		strings.Contains(msg, "permission denied"):
		return FailureInvalidKey
	case strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "rate limit"):
		return FailureQuota
	case strings.Contains(msg, "empty response") ||
		strings.Contains(msg, "empty description") ||
		strings.Contains(msg, "empty text") ||
		strings.Contains(msg, "no choices") ||
		strings.Contains(msg, "no text"):
		return FailureEmpty
	case strings.Contains(msg, "connection") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "dial") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "unreachable"):
		return FailureTransient
	default:
		return FailureUnknown
	}
}

func classifyStatus(code int) FailureClass {
	switch {
	case code == 400 || code == 401 || code == 403:
		return FailureInvalidKey
	case code == 429:
		return FailureQuota
	case code >= 500 && code <= 599:
		return FailureTransient
	default:
		return FailureUnknown
	}
}
