package sealevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.firedancer.io/cpi/pkg/features"
)

func TestLimits_Default(t *testing.T) {
	l := DefaultLimits()
	assert.NoError(t, l.Validate())
	assert.Equal(t, 10240, l.MaxInstructionDataLen)
	assert.Equal(t, 255, l.MaxInstructionAccounts)
	assert.Equal(t, 128, l.MaxAccountInfos)
	assert.Equal(t, 1024, l.MaxReturnData)
	assert.Equal(t, 16, l.MaxSigners)
	assert.Equal(t, 16, l.MaxSeeds)
	assert.Equal(t, 32, l.MaxSeedLen)
}

func TestLimits_Validate(t *testing.T) {
	l := DefaultLimits()
	l.MaxCallDepth = -1
	assert.ErrorIs(t, l.Validate(), ErrInvalidArgument)

	l = DefaultLimits()
	l.MaxSeedLen = 33
	assert.ErrorIs(t, l.Validate(), ErrInvalidArgument)
}

func TestLimits_CheckInstruction(t *testing.T) {
	l := DefaultLimits()
	f := features.NewFeaturesAllEnabled()

	ix := &Instruction{Data: make([]byte, MaxInstructionDataLen), Accounts: make([]AccountMeta, MaxInstructionAccounts)}
	assert.NoError(t, l.checkInstruction(ix, MaxAccountInfos, f))
	assert.ErrorIs(t, l.checkInstruction(ix, MaxAccountInfos+1, f), ErrMaxAccountInfosExceeded)

	ix.Data = append(ix.Data, 0)
	assert.ErrorIs(t, l.checkInstruction(ix, 0, f), ErrMaxInstructionDataLenExceeded)

	ix.Data = nil
	ix.Accounts = append(ix.Accounts, AccountMeta{})
	assert.ErrorIs(t, l.checkInstruction(ix, 0, f), ErrMaxInstructionAccountsExceeded)
}

func TestLimits_CheckInstructionLegacy(t *testing.T) {
	l := DefaultLimits()
	f := features.NewFeaturesAllEnabled()
	f.DisableFeature(features.LoosenCpiSizeRestriction)

	ix := &Instruction{Data: make([]byte, MaxCpiInstructionSize-2*AccountMetaSize), Accounts: make([]AccountMeta, 2)}
	assert.NoError(t, l.checkInstruction(ix, 1, f))

	ix.Data = append(ix.Data, 0)
	err := l.checkInstruction(ix, 1, f)
	assert.ErrorIs(t, err, ErrInstructionTooLarge)
	assert.ErrorIs(t, err, ErrResourceLimitExceeded)
}

func TestLimits_CheckSigners(t *testing.T) {
	l := DefaultLimits()
	assert.NoError(t, l.checkSigners(make([]SignerSeeds, MaxSigners)))
	assert.ErrorIs(t, l.checkSigners(make([]SignerSeeds, MaxSigners+1)), ErrTooManySigners)
	assert.ErrorIs(t, l.checkSigners([]SignerSeeds{make(SignerSeeds, 17)}), ErrMaxSeedsExceeded)
	assert.ErrorIs(t, l.checkSigners([]SignerSeeds{{make([]byte, 33)}}), ErrMaxSeedLengthExceeded)
	assert.NoError(t, l.checkSigners([]SignerSeeds{{make([]byte, 32)}}))
}
