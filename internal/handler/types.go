package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerifyRequest carries either pasted email source or a mailbox message id.
type VerifyRequest struct {
	Source    string `json:"source"`
	MessageID string `json:"message_id"`
}

// SignRequest is the body of a sign message call.
type SignRequest struct {
	Message string `json:"message" binding:"required"`
}

// LoanRequest is the body of a loan request. Amounts are in credits.
type LoanRequest struct {
	PoolID int             `json:"pool_id" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// AmountRequest carries a repayment or deposit amount in credits.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// WithdrawRequest names the LP token to redeem.
type WithdrawRequest struct {
	LPTokenID string `json:"lp_token_id" binding:"required"`
}

// BalanceResponse is the public balance of the connected account.
type BalanceResponse struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Network   string            `json:"network"`
	Wallet    string            `json:"wallet"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Remedy  string `json:"remedy,omitempty"`
}
