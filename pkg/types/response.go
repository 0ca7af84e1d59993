package types

import "github.com/tiredist/tiredist-backend/pkg/pagination"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Paginated wraps a listing with its page metadata.
type Paginated[T any] struct {
	Items []T             `json:"items"`
	Page  pagination.Page `json:"pagination"`
}
