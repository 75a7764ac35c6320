package scheduler

import (
	"context"

	schedulerSvc "aura-protocol-go/internal/scheduler"
)

// Controller is the scheduler surface exposed over HTTP.
// *schedulerSvc.Scheduler implements it.
type Controller interface {
	Start() error
	Stop() error
	RunOnce(ctx context.Context) error
	Status() schedulerSvc.Status
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Remedy  string `json:"remedy,omitempty"`
}
