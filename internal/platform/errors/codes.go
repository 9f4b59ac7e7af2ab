// Package errors provides structured ledger errors with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input validation errors
	CodeInvalidAddress Code = "INVALID_ADDRESS"
	CodeInvalidBetKind Code = "INVALID_BET_KIND"
	CodeInvalidNumber  Code = "INVALID_NUMBER"
	CodeWrongStake     Code = "WRONG_STAKE"
	CodeInvalidTier    Code = "INVALID_TIER"
	CodeInvalidName    Code = "INVALID_NAME"
	CodeSelfSwap       Code = "SELF_SWAP"

	// Ledger state errors
	CodeNotOwner             Code = "NOT_OWNER"
	CodeWrongTarget          Code = "WRONG_TARGET"
	CodeItemReserved         Code = "ITEM_RESERVED"
	CodeProposerNoLongerOwns Code = "PROPOSER_NO_LONGER_OWNS"
	CodeNotPending           Code = "NOT_PENDING"
	CodeNotFound             Code = "NOT_FOUND"

	// Capacity errors
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"

	// Rate limiting errors
	CodeCooldownActive Code = "COOLDOWN_ACTIVE"

	// Authorization errors
	CodeNotProposer Code = "NOT_PROPOSER"
	CodeNotTarget   Code = "NOT_TARGET"
	CodeNotMinter   Code = "NOT_MINTER"
)

// Category groups codes by how a caller should react to them.
type Category string

const (
	// CategoryValidation marks malformed input; resubmit corrected input.
	CategoryValidation Category = "VALIDATION"
	// CategoryState marks a precondition violated by current ledger state; re-query first.
	CategoryState Category = "STATE"
	// CategoryCapacity marks a recipient at its holding cap.
	CategoryCapacity Category = "CAPACITY"
	// CategoryCooldown marks a rate-limited actor; retry after the remaining window.
	CategoryCooldown Category = "COOLDOWN"
	// CategoryAuthorization marks a caller not allowed to perform the action.
	CategoryAuthorization Category = "AUTHORIZATION"
	// CategoryInternal marks failures outside the domain taxonomy.
	CategoryInternal Category = "INTERNAL"
)

// Category maps a code to its taxonomy group.
func (c Code) Category() Category {
	switch c {
	case CodeInvalidAddress,
		CodeInvalidBetKind,
		CodeInvalidNumber,
		CodeWrongStake,
		CodeInvalidTier,
		CodeInvalidName,
		CodeSelfSwap:
		return CategoryValidation
	case CodeNotOwner,
		CodeWrongTarget,
		CodeItemReserved,
		CodeProposerNoLongerOwns,
		CodeNotPending,
		CodeNotFound:
		return CategoryState
	case CodeCapacityExceeded:
		return CategoryCapacity
	case CodeCooldownActive:
		return CategoryCooldown
	case CodeNotProposer,
		CodeNotTarget,
		CodeNotMinter:
		return CategoryAuthorization
	default:
		return CategoryInternal
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	if c == CodeNotFound {
		return codes.NotFound
	}
	switch c.Category() {
	case CategoryValidation:
		return codes.InvalidArgument
	case CategoryState, CategoryCapacity:
		return codes.FailedPrecondition
	case CategoryCooldown:
		return codes.ResourceExhausted
	case CategoryAuthorization:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}
