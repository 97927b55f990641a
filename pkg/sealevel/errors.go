package sealevel

import (
	"github.com/pkg/errors"
)

// invocation errors
var (
	ErrInvalidArgument          = errors.New("InvalidArgument")
	ErrResourceLimitExceeded    = errors.New("ResourceLimitExceeded")
	ErrPrivilegeEscalation      = errors.New("PrivilegeEscalation")
	ErrAccountAliasingViolation = errors.New("AccountAliasingViolation")
	ErrCallDepthExceeded        = errors.New("CallDepthExceeded")
	ErrProgramNotExecutable     = errors.New("ProgramNotExecutable")
	ErrUnresolvedAccount        = errors.New("UnresolvedAccount")
	ErrInvalidSeeds             = errors.New("InvalidSeeds")
	ErrNoValidAddress           = errors.New("NoValidAddress")
	ErrReturnDataTooLarge       = errors.New("ReturnDataTooLarge")
	ErrReadonlyDataModified     = errors.New("ReadonlyDataModified")
	ErrReentrancyNotAllowed     = errors.New("ReentrancyNotAllowed")
	ErrProgramNotSupported      = errors.New("ProgramNotSupported")
	ErrReturnDataDisabled       = errors.New("ReturnDataDisabled")
)

// resource limit errors; each matches ErrResourceLimitExceeded via errors.Is
var (
	ErrMaxInstructionDataLenExceeded     = errors.WithMessage(ErrResourceLimitExceeded, "MaxInstructionDataLenExceeded")
	ErrMaxInstructionAccountsExceeded    = errors.WithMessage(ErrResourceLimitExceeded, "MaxInstructionAccountsExceeded")
	ErrMaxAccountInfosExceeded           = errors.WithMessage(ErrResourceLimitExceeded, "MaxInstructionAccountInfosExceeded")
	ErrInstructionTooLarge               = errors.WithMessage(ErrResourceLimitExceeded, "InstructionTooLarge")
	ErrTooManySigners                    = errors.WithMessage(ErrResourceLimitExceeded, "TooManySigners")
	ErrMaxSeedsExceeded                  = errors.WithMessage(ErrResourceLimitExceeded, "MaxSeedsExceeded")
	ErrMaxSeedLengthExceeded             = errors.WithMessage(ErrResourceLimitExceeded, "MaxSeedLengthExceeded")
	ErrMaxInstructionTraceLengthExceeded = errors.WithMessage(ErrResourceLimitExceeded, "MaxInstructionTraceLengthExceeded")
)

// IsFatal reports whether err aborts the whole transaction regardless of
// how the calling program handles it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrPrivilegeEscalation) ||
		errors.Is(err, ErrAccountAliasingViolation) ||
		errors.Is(err, ErrCallDepthExceeded)
}

// program status codes; builtin codes live in the upper 32 bits
const (
	builtinBitShift = 32

	StatusSuccess                   = uint64(0)
	StatusCustomZero                = uint64(1) << builtinBitShift
	StatusInvalidArgument           = uint64(2) << builtinBitShift
	StatusInvalidInstructionData    = uint64(3) << builtinBitShift
	StatusInvalidAccountData        = uint64(4) << builtinBitShift
	StatusInsufficientFunds         = uint64(6) << builtinBitShift
	StatusMissingRequiredSignatures = uint64(8) << builtinBitShift
	StatusNotEnoughAccountKeys      = uint64(11) << builtinBitShift
	StatusMaxSeedLengthExceeded     = uint64(13) << builtinBitShift
	StatusInvalidSeeds              = uint64(14) << builtinBitShift
)

// StatusFromError maps an error to the builtin status a program would
// observe. Errors without a builtin equivalent map to InvalidArgument.
func StatusFromError(err error) uint64 {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrMaxSeedLengthExceeded):
		return StatusMaxSeedLengthExceeded
	case errors.Is(err, ErrInvalidSeeds), errors.Is(err, ErrNoValidAddress):
		return StatusInvalidSeeds
	case errors.Is(err, ErrUnresolvedAccount):
		return StatusNotEnoughAccountKeys
	case errors.Is(err, ErrPrivilegeEscalation):
		return StatusMissingRequiredSignatures
	case errors.Is(err, ErrReadonlyDataModified):
		return StatusInvalidAccountData
	default:
		return StatusInvalidArgument
	}
}
