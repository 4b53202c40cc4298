package api

import "github.com/spine-examples/todo-list/domain"

const postCommandMaxSize = 64 << 10

type postCommandResponse struct {
	IdempotencyKeys []string `json:"idempotencyKeys"`
	Duplicates      []string `json:"duplicates,omitempty"`
	Error           string   `json:"error,omitempty"`
}

type outcomeResponse struct {
	IdempotencyKey string `json:"idempotencyKey"`
	domain.Outcome
}
