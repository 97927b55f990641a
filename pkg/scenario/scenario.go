// Package scenario describes transactions and scripted programs in YAML
// and runs them through the invocation runtime.
package scenario

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"go.firedancer.io/cpi/pkg/features"
	"go.firedancer.io/cpi/pkg/sealevel"
	sol "go.firedancer.io/cpi/pkg/solana"
	"gopkg.in/yaml.v3"
)

type Scenario struct {
	Name        string          `yaml:"name"`
	Limits      *LimitsConfig   `yaml:"limits"`
	Features    FeatureConfig   `yaml:"features"`
	Accounts    []AccountConfig `yaml:"accounts"`
	Programs    []ProgramConfig `yaml:"programs"`
	Instruction InvokeStep      `yaml:"instruction"`
	Expect      Expectation     `yaml:"expect"`

	keys  map[string]solana.PublicKey
	bumps map[string]uint8
}

// LimitsConfig overrides individual runtime limits; unset fields keep
// their defaults.
type LimitsConfig struct {
	MaxInstructionDataLen     *int `yaml:"max_instruction_data_len"`
	MaxInstructionAccounts    *int `yaml:"max_instruction_accounts"`
	MaxAccountInfos           *int `yaml:"max_account_infos"`
	MaxReturnData             *int `yaml:"max_return_data"`
	MaxSigners                *int `yaml:"max_signers"`
	MaxCallDepth              *int `yaml:"max_call_depth"`
	MaxInstructionTraceLength *int `yaml:"max_instruction_trace_length"`
}

type FeatureConfig struct {
	Disable []string `yaml:"disable"`
}

type AccountConfig struct {
	Name      string     `yaml:"name"`
	Key       string     `yaml:"key"`
	PDA       *PDAConfig `yaml:"pda"`
	Owner     string     `yaml:"owner"`
	Lamports  uint64     `yaml:"lamports"`
	Data      string     `yaml:"data"`
	RentEpoch uint64     `yaml:"rent_epoch"`
}

// PDAConfig places an account at the canonical program address of seeds.
type PDAConfig struct {
	Program string   `yaml:"program"`
	Seeds   []string `yaml:"seeds"`
}

type ProgramConfig struct {
	Name  string `yaml:"name"`
	Key   string `yaml:"key"`
	Steps []Step `yaml:"steps"`
}

type MetaConfig struct {
	Account  string `yaml:"account"`
	Signer   bool   `yaml:"signer"`
	Writable bool   `yaml:"writable"`
	// Forge passes a copy of this field instead of the tracked one.
	Forge string `yaml:"forge"`
}

type InvokeStep struct {
	Program  string       `yaml:"program"`
	Accounts []MetaConfig `yaml:"accounts"`
	Data     string       `yaml:"data"`
	DataLen  int          `yaml:"data_len"`
	Signers  [][]string   `yaml:"signers"`
	// NoAccountInfos invokes without passing any account infos.
	NoAccountInfos bool `yaml:"no_account_infos"`
}

type Step struct {
	Invoke           *InvokeStep       `yaml:"invoke"`
	ExpectError      string            `yaml:"expect_error"`
	ExpectStatus     *uint64           `yaml:"expect_status"`
	IgnoreError      bool              `yaml:"ignore_error"`
	Transfer         *TransferStep     `yaml:"transfer"`
	Write            *WriteStep        `yaml:"write"`
	SetReturnData    *string           `yaml:"set_return_data"`
	ExpectReturnData *ReturnDataExpect `yaml:"expect_return_data"`
	ExpectAccount    *AccountState     `yaml:"expect_account"`
	Log              string            `yaml:"log"`
	Return           *uint64           `yaml:"return"`
}

type TransferStep struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Lamports uint64 `yaml:"lamports"`
}

type WriteStep struct {
	Account string `yaml:"account"`
	Offset  int    `yaml:"offset"`
	Data    string `yaml:"data"`
}

type ReturnDataExpect struct {
	Program string `yaml:"program"`
	Data    string `yaml:"data"`
}

type AccountState struct {
	Name     string  `yaml:"name"`
	Lamports *uint64 `yaml:"lamports"`
	Data     *string `yaml:"data"`
}

type Expectation struct {
	Status     *uint64           `yaml:"status"`
	Error      string            `yaml:"error"`
	Accounts   []AccountState    `yaml:"accounts"`
	ReturnData *ReturnDataExpect `yaml:"return_data"`
}

// Parse decodes a scenario and resolves its account and program names.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	s := new(Scenario)
	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrap(err, "decoding scenario")
	}
	if err := s.resolve(); err != nil {
		return nil, errors.Wrapf(err, "scenario %q", s.Name)
	}
	return s, nil
}

func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// keyFromName gives unnamed accounts a stable address.
func keyFromName(name string) solana.PublicKey {
	sum := sha256.Sum256([]byte(name))
	return solana.PublicKeyFromBytes(sum[:])
}

func parseKey(name, key string) (solana.PublicKey, error) {
	if key == "" {
		return keyFromName(name), nil
	}
	return solana.PublicKeyFromBase58(key)
}

func (s *Scenario) resolve() error {
	s.keys = make(map[string]solana.PublicKey)
	s.bumps = make(map[string]uint8)
	s.keys["system"] = sol.SystemProgramAddr
	s.keys["bpf_loader"] = sol.BpfLoader2Addr
	s.keys["ed25519"] = sol.Ed25519PrecompileId
	s.keys["secp256k1"] = sol.Secp256kPrecompileId

	for _, p := range s.Programs {
		key, err := parseKey(p.Name, p.Key)
		if err != nil {
			return errors.Wrapf(err, "program %s", p.Name)
		}
		if err := s.define(p.Name, key); err != nil {
			return err
		}
	}

	for _, a := range s.Accounts {
		if a.PDA == nil {
			key, err := parseKey(a.Name, a.Key)
			if err != nil {
				return errors.Wrapf(err, "account %s", a.Name)
			}
			if err := s.define(a.Name, key); err != nil {
				return err
			}
			continue
		}

		programId, err := s.Key(a.PDA.Program)
		if err != nil {
			return errors.Wrapf(err, "account %s", a.Name)
		}
		seeds, err := s.Seeds(a.PDA.Seeds)
		if err != nil {
			return errors.Wrapf(err, "account %s", a.Name)
		}
		key, bump, err := sol.FindProgramAddress(seeds, programId)
		if err != nil {
			return errors.Wrapf(err, "account %s", a.Name)
		}
		if err := s.define(a.Name, key); err != nil {
			return err
		}
		s.bumps[a.Name] = bump
	}

	return nil
}

func (s *Scenario) define(name string, key solana.PublicKey) error {
	if name == "" {
		return errors.New("unnamed account")
	}
	if _, dup := s.keys[name]; dup {
		return errors.Errorf("name %s defined twice", name)
	}
	s.keys[name] = key
	return nil
}

// Key resolves an account or program name. Literal base58 addresses are
// accepted as well.
func (s *Scenario) Key(name string) (solana.PublicKey, error) {
	if key, ok := s.keys[name]; ok {
		return key, nil
	}
	key, err := solana.PublicKeyFromBase58(name)
	if err != nil {
		return solana.PublicKey{}, errors.Errorf("unknown account %q", name)
	}
	return key, nil
}

// NameOf returns the scenario name of key, or its base58 form.
func (s *Scenario) NameOf(key solana.PublicKey) string {
	for name, k := range s.keys {
		if k == key {
			return name
		}
	}
	return key.String()
}

// Seeds decodes signer or PDA seeds. "bump:<account>" stands for the bump
// seed of a PDA account.
func (s *Scenario) Seeds(seeds []string) ([][]byte, error) {
	out := make([][]byte, len(seeds))
	for i, seed := range seeds {
		if name, ok := strings.CutPrefix(seed, "bump:"); ok {
			bump, ok := s.bumps[name]
			if !ok {
				return nil, errors.Errorf("account %q is not a PDA", name)
			}
			out[i] = []byte{bump}
			continue
		}
		b, err := DecodeBytes(seed)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// DecodeBytes decodes "0x"-prefixed hex, "b58:"-prefixed base58, or plain
// text.
func DecodeBytes(s string) ([]byte, error) {
	switch {
	case strings.HasPrefix(s, "0x"):
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, errors.Wrapf(err, "hex %q", s)
		}
		return b, nil
	case strings.HasPrefix(s, "b58:"):
		b, err := base58.Decode(s[4:])
		if err != nil {
			return nil, errors.Wrapf(err, "base58 %q", s)
		}
		return b, nil
	}
	return []byte(s), nil
}

// RuntimeLimits applies the scenario's overrides to the default limits.
func (s *Scenario) RuntimeLimits() sealevel.Limits {
	l := sealevel.DefaultLimits()
	if c := s.Limits; c != nil {
		set := func(dst *int, v *int) {
			if v != nil {
				*dst = *v
			}
		}
		set(&l.MaxInstructionDataLen, c.MaxInstructionDataLen)
		set(&l.MaxInstructionAccounts, c.MaxInstructionAccounts)
		set(&l.MaxAccountInfos, c.MaxAccountInfos)
		set(&l.MaxReturnData, c.MaxReturnData)
		set(&l.MaxSigners, c.MaxSigners)
		set(&l.MaxCallDepth, c.MaxCallDepth)
		set(&l.MaxInstructionTraceLength, c.MaxInstructionTraceLength)
	}
	return l
}

func (s *Scenario) RuntimeFeatures() (*features.Features, error) {
	f := features.NewFeaturesAllEnabled()
	for _, name := range s.Features.Disable {
		gate, ok := features.GateByName(name)
		if !ok {
			return nil, errors.Errorf("unknown feature %q", name)
		}
		f.DisableFeature(gate)
	}
	return f, nil
}

func (s *Scenario) instruction(def *InvokeStep) (sealevel.Instruction, error) {
	programId, err := s.Key(def.Program)
	if err != nil {
		return sealevel.Instruction{}, err
	}

	metas := make([]sealevel.AccountMeta, len(def.Accounts))
	for i, m := range def.Accounts {
		key, err := s.Key(m.Account)
		if err != nil {
			return sealevel.Instruction{}, err
		}
		metas[i] = sealevel.AccountMeta{Pubkey: key, IsSigner: m.Signer, IsWritable: m.Writable}
	}

	data, err := DecodeBytes(def.Data)
	if err != nil {
		return sealevel.Instruction{}, err
	}
	if def.DataLen > 0 {
		data = append(data, bytes.Repeat([]byte{0}, def.DataLen)...)
	}

	return sealevel.Instruction{ProgramId: programId, Accounts: metas, Data: data}, nil
}

// errorNames maps the names used in expectations to runtime errors.
var errorNames = map[string]error{
	"InvalidArgument":                   sealevel.ErrInvalidArgument,
	"ResourceLimitExceeded":             sealevel.ErrResourceLimitExceeded,
	"PrivilegeEscalation":               sealevel.ErrPrivilegeEscalation,
	"AccountAliasingViolation":          sealevel.ErrAccountAliasingViolation,
	"CallDepthExceeded":                 sealevel.ErrCallDepthExceeded,
	"ProgramNotExecutable":              sealevel.ErrProgramNotExecutable,
	"UnresolvedAccount":                 sealevel.ErrUnresolvedAccount,
	"InvalidSeeds":                      sealevel.ErrInvalidSeeds,
	"NoValidAddress":                    sealevel.ErrNoValidAddress,
	"ReturnDataTooLarge":                sealevel.ErrReturnDataTooLarge,
	"ReadonlyDataModified":              sealevel.ErrReadonlyDataModified,
	"ReentrancyNotAllowed":              sealevel.ErrReentrancyNotAllowed,
	"ProgramNotSupported":               sealevel.ErrProgramNotSupported,
	"MaxInstructionDataLenExceeded":     sealevel.ErrMaxInstructionDataLenExceeded,
	"MaxInstructionAccountsExceeded":    sealevel.ErrMaxInstructionAccountsExceeded,
	"MaxAccountInfosExceeded":           sealevel.ErrMaxAccountInfosExceeded,
	"InstructionTooLarge":               sealevel.ErrInstructionTooLarge,
	"TooManySigners":                    sealevel.ErrTooManySigners,
	"MaxSeedsExceeded":                  sealevel.ErrMaxSeedsExceeded,
	"MaxSeedLengthExceeded":             sealevel.ErrMaxSeedLengthExceeded,
	"MaxInstructionTraceLengthExceeded": sealevel.ErrMaxInstructionTraceLengthExceeded,
}

func matchError(name string, err error) error {
	want, ok := errorNames[name]
	if !ok {
		return errors.Errorf("unknown error name %q", name)
	}
	if !errors.Is(err, want) {
		return errors.Errorf("expected %s, got %v", name, err)
	}
	return nil
}
