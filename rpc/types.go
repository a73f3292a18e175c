// Package rpc provides JSON-RPC 2.0 types and the sale_ namespace API
// exposing the token sale's external interface over HTTP.
package rpc

import (
	"encoding/json"
	"errors"

	"github.com/salenode/salenode/core"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *RPCError) Error() string { return e.Message }

// Protocol error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Application error codes, one per contract failure class.
const (
	ErrCodeContract          = -32000
	ErrCodeUnauthorized      = -32001
	ErrCodeInvalidState      = -32002
	ErrCodeInvalidArgument   = -32003
	ErrCodeInsufficientFunds = -32004
	ErrCodeReentrantCall     = -32005
	ErrCodeNoCommitFound     = -32006
	ErrCodeRevealTooEarly    = -32007
	ErrCodeCommitMismatch    = -32008
	ErrCodePaymentFailed     = -32009
)

// contractErrorCode maps contract sentinels to application error codes.
func contractErrorCode(err error) int {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return ErrCodeUnauthorized
	case errors.Is(err, core.ErrReentrantCall):
		return ErrCodeReentrantCall
	case errors.Is(err, core.ErrAlreadyInitialized),
		errors.Is(err, core.ErrNotInitialized),
		errors.Is(err, core.ErrAlreadyActive),
		errors.Is(err, core.ErrSaleNotActive),
		errors.Is(err, core.ErrContractStopped),
		errors.Is(err, core.ErrContractNotStopped),
		errors.Is(err, core.ErrAlreadyStopped),
		errors.Is(err, core.ErrContractPaused):
		return ErrCodeInvalidState
	case errors.Is(err, core.ErrInvalidRecipient),
		errors.Is(err, core.ErrInvalidCommitValue),
		errors.Is(err, core.ErrZeroPayment),
		errors.Is(err, core.ErrZeroAmount),
		errors.Is(err, core.ErrInvalidPrice),
		errors.Is(err, core.ErrInvalidDuration):
		return ErrCodeInvalidArgument
	case errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrInsufficientAllowance),
		errors.Is(err, core.ErrInsufficientSupply),
		errors.Is(err, core.ErrInsufficientVault):
		return ErrCodeInsufficientFunds
	case errors.Is(err, core.ErrNoCommitFound):
		return ErrCodeNoCommitFound
	case errors.Is(err, core.ErrRevealTooEarly):
		return ErrCodeRevealTooEarly
	case errors.Is(err, core.ErrInvalidCommitRevealPair):
		return ErrCodeCommitMismatch
	case errors.Is(err, core.ErrPaymentFailed):
		return ErrCodePaymentFailed
	default:
		return ErrCodeContract
	}
}
