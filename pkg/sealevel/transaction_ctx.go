package sealevel

import (
	"github.com/edwingeng/deque/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.firedancer.io/cpi/pkg/features"
)

// TraceEntry records one executed instruction, top-level or nested.
type TraceEntry struct {
	ProgramId   solana.PublicKey
	StackHeight int
	NumAccounts int
	Status      uint64
	Err         error
}

// TransactionCtx is the state shared by every frame of one transaction.
type TransactionCtx struct {
	Table      *AccountTable
	Limits     Limits
	Features   *features.Features
	ReturnData ReturnData

	instructionStack *deque.Deque[*InstructionCtx]
	trace            []TraceEntry
	depth            int
	fatal            error
}

func NewTransactionCtx(table *AccountTable, limits Limits, f *features.Features) *TransactionCtx {
	return &TransactionCtx{
		Table:    table,
		Limits:   limits,
		Features: f,

		instructionStack: deque.NewDeque[*InstructionCtx](),
	}
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	instrCtx, ok := txCtx.instructionStack.Back()
	if !ok {
		return nil, errors.Wrap(ErrInvalidArgument, "no instruction is executing")
	}
	return instrCtx, nil
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() int {
	return txCtx.instructionStack.Len()
}

// Depth is the current nesting depth guarded by Limits.MaxCallDepth.
func (txCtx *TransactionCtx) Depth() int {
	return txCtx.depth
}

func (txCtx *TransactionCtx) enter() error {
	txCtx.depth++
	if txCtx.depth > txCtx.Limits.MaxCallDepth {
		return errors.Wrapf(ErrCallDepthExceeded, "depth %d > %d", txCtx.depth, txCtx.Limits.MaxCallDepth)
	}
	return nil
}

func (txCtx *TransactionCtx) leave() {
	txCtx.depth--
}

// Push appends the frame to the stack and the instruction trace. It
// returns the frame's trace position.
func (txCtx *TransactionCtx) Push(instrCtx *InstructionCtx) (int, error) {
	if txCtx.Features.IsActive(features.LimitMaxInstructionTraceLength) &&
		len(txCtx.trace) >= txCtx.Limits.MaxInstructionTraceLength {
		return 0, errors.Wrapf(ErrMaxInstructionTraceLengthExceeded, "%d entries", len(txCtx.trace))
	}

	// a program may call itself directly, but not be re-entered through
	// another program
	stack := txCtx.instructionStack
	if back, ok := stack.Back(); ok && back.programId != instrCtx.programId {
		reentrant := false
		stack.Range(func(_ int, frame *InstructionCtx) bool {
			reentrant = frame.programId == instrCtx.programId
			return !reentrant
		})
		if reentrant {
			return 0, errors.Wrapf(ErrReentrancyNotAllowed, "program %s", instrCtx.programId)
		}
	}

	stack.PushBack(instrCtx)
	txCtx.trace = append(txCtx.trace, TraceEntry{
		ProgramId:   instrCtx.programId,
		StackHeight: stack.Len(),
		NumAccounts: len(instrCtx.accounts),
	})
	return len(txCtx.trace) - 1, nil
}

func (txCtx *TransactionCtx) Pop() error {
	if _, ok := txCtx.instructionStack.TryPopBack(); !ok {
		return errors.Wrap(ErrInvalidArgument, "pop on empty instruction stack")
	}
	return nil
}

func (txCtx *TransactionCtx) finishTrace(pos int, status uint64, err error) {
	txCtx.trace[pos].Status = status
	txCtx.trace[pos].Err = err
}

// Trace returns every instruction executed so far, in execution order.
func (txCtx *TransactionCtx) Trace() []TraceEntry {
	return append([]TraceEntry(nil), txCtx.trace...)
}

// Fatal returns the first fatal error raised in the transaction, if any.
func (txCtx *TransactionCtx) Fatal() error {
	return txCtx.fatal
}

func (txCtx *TransactionCtx) recordFatal(err error) {
	if txCtx.fatal == nil {
		txCtx.fatal = err
	}
}
