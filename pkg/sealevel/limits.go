package sealevel

import (
	"github.com/pkg/errors"
	"go.firedancer.io/cpi/pkg/features"
	sol "go.firedancer.io/cpi/pkg/solana"
)

const (
	MaxInstructionDataLen     = 10 * 1024
	MaxInstructionAccounts    = 255
	MaxAccountInfos           = 128
	MaxReturnData             = 1024
	MaxSigners                = 16
	MaxCallDepth              = 4
	MaxInstructionTraceLength = 64

	// legacy limit, before LoosenCpiSizeRestriction
	MaxCpiInstructionSize = 1280
)

// Limits holds the ceilings enforced on every invocation.
type Limits struct {
	MaxInstructionDataLen     int `yaml:"max_instruction_data_len"`
	MaxInstructionAccounts    int `yaml:"max_instruction_accounts"`
	MaxAccountInfos           int `yaml:"max_account_infos"`
	MaxReturnData             int `yaml:"max_return_data"`
	MaxSigners                int `yaml:"max_signers"`
	MaxSeeds                  int `yaml:"max_seeds"`
	MaxSeedLen                int `yaml:"max_seed_len"`
	MaxCallDepth              int `yaml:"max_call_depth"`
	MaxInstructionTraceLength int `yaml:"max_instruction_trace_length"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxInstructionDataLen:     MaxInstructionDataLen,
		MaxInstructionAccounts:    MaxInstructionAccounts,
		MaxAccountInfos:           MaxAccountInfos,
		MaxReturnData:             MaxReturnData,
		MaxSigners:                MaxSigners,
		MaxSeeds:                  sol.MaxSeeds,
		MaxSeedLen:                sol.MaxSeedLen,
		MaxCallDepth:              MaxCallDepth,
		MaxInstructionTraceLength: MaxInstructionTraceLength,
	}
}

// Validate rejects configurations that could never admit an invocation.
func (l Limits) Validate() error {
	switch {
	case l.MaxInstructionDataLen < 0, l.MaxInstructionAccounts < 0, l.MaxAccountInfos < 0:
		return errors.Wrap(ErrInvalidArgument, "instruction limits must not be negative")
	case l.MaxReturnData < 0:
		return errors.Wrap(ErrInvalidArgument, "return data limit must not be negative")
	case l.MaxSeeds > sol.MaxSeeds || l.MaxSeedLen > sol.MaxSeedLen:
		return errors.Wrapf(ErrInvalidArgument, "seed limits exceed derivation limits (%d seeds of %d bytes)", sol.MaxSeeds, sol.MaxSeedLen)
	case l.MaxCallDepth < 0:
		return errors.Wrap(ErrInvalidArgument, "call depth must not be negative")
	}
	return nil
}

// checkInstruction enforces the size ceilings on an instruction and the
// account infos passed with it.
func (l Limits) checkInstruction(ix *Instruction, numAccountInfos int, f *features.Features) error {
	if !f.IsActive(features.LoosenCpiSizeRestriction) {
		size := len(ix.Accounts)*AccountMetaSize + len(ix.Data)
		if size > MaxCpiInstructionSize {
			return errors.Wrapf(ErrInstructionTooLarge, "%d > %d", size, MaxCpiInstructionSize)
		}
		if numAccountInfos*sol.PublicKeyLength > MaxCpiInstructionSize {
			return errors.Wrapf(ErrMaxAccountInfosExceeded, "%d account infos", numAccountInfos)
		}
		return nil
	}

	if len(ix.Data) > l.MaxInstructionDataLen {
		return errors.Wrapf(ErrMaxInstructionDataLenExceeded, "%d > %d", len(ix.Data), l.MaxInstructionDataLen)
	}
	if len(ix.Accounts) > l.MaxInstructionAccounts {
		return errors.Wrapf(ErrMaxInstructionAccountsExceeded, "%d > %d", len(ix.Accounts), l.MaxInstructionAccounts)
	}
	if numAccountInfos > l.MaxAccountInfos {
		return errors.Wrapf(ErrMaxAccountInfosExceeded, "%d > %d", numAccountInfos, l.MaxAccountInfos)
	}
	return nil
}

func (l Limits) checkSigners(signers []SignerSeeds) error {
	if len(signers) > l.MaxSigners {
		return errors.Wrapf(ErrTooManySigners, "%d > %d", len(signers), l.MaxSigners)
	}
	for _, seeds := range signers {
		if len(seeds) > l.MaxSeeds {
			return errors.Wrapf(ErrMaxSeedsExceeded, "%d > %d", len(seeds), l.MaxSeeds)
		}
		for _, seed := range seeds {
			if len(seed) > l.MaxSeedLen {
				return errors.Wrapf(ErrMaxSeedLengthExceeded, "%d > %d", len(seed), l.MaxSeedLen)
			}
		}
	}
	return nil
}
