package scenario

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.firedancer.io/cpi/pkg/sealevel"
)

// ErrExpectation is returned by a scripted program whose expectation did
// not hold.
var ErrExpectation = errors.New("ExpectationFailed")

// scriptedProgram interprets the steps of a ProgramConfig.
type scriptedProgram struct {
	s   *Scenario
	def *ProgramConfig
}

// Registry returns a loader holding an interpreter for each scripted
// program of the scenario.
func (s *Scenario) Registry() sealevel.ProgramRegistry {
	registry := sealevel.NewProgramRegistry()
	for i := range s.Programs {
		def := &s.Programs[i]
		registry.Register(s.keys[def.Name], &scriptedProgram{s: s, def: def})
	}
	return registry
}

func (p *scriptedProgram) Execute(port sealevel.Port, accts []*sealevel.AccountInfo, data []byte) (uint64, error) {
	for i := range p.def.Steps {
		step := &p.def.Steps[i]
		status, done, err := p.step(port, accts, step)
		if err != nil {
			return status, errors.Wrapf(err, "%s step %d", p.def.Name, i)
		}
		if done || status != sealevel.StatusSuccess {
			return status, nil
		}
	}
	return sealevel.StatusSuccess, nil
}

func (p *scriptedProgram) step(port sealevel.Port, accts []*sealevel.AccountInfo, step *Step) (status uint64, done bool, err error) {
	switch {
	case step.Invoke != nil:
		status, err = p.invoke(port, accts, step)
		return status, false, err

	case step.Transfer != nil:
		from, err := p.account(accts, step.Transfer.From)
		if err != nil {
			return 0, false, err
		}
		to, err := p.account(accts, step.Transfer.To)
		if err != nil {
			return 0, false, err
		}
		if *from.Lamports < step.Transfer.Lamports {
			return sealevel.StatusInsufficientFunds, false, nil
		}
		*from.Lamports -= step.Transfer.Lamports
		*to.Lamports += step.Transfer.Lamports

	case step.Write != nil:
		info, err := p.account(accts, step.Write.Account)
		if err != nil {
			return 0, false, err
		}
		b, err := DecodeBytes(step.Write.Data)
		if err != nil {
			return 0, false, err
		}
		if step.Write.Offset < 0 {
			return sealevel.StatusInvalidArgument, false, nil
		}
		end := step.Write.Offset + len(b)
		if end > len(*info.Data) {
			grown := make([]byte, end)
			copy(grown, *info.Data)
			*info.Data = grown
		}
		copy((*info.Data)[step.Write.Offset:], b)

	case step.SetReturnData != nil:
		b, err := DecodeBytes(*step.SetReturnData)
		if err != nil {
			return 0, false, err
		}
		if err := port.SetReturnData(b); err != nil {
			return sealevel.StatusFromError(err), false, err
		}

	case step.ExpectReturnData != nil:
		if err := p.checkReturnData(port, step.ExpectReturnData); err != nil {
			return 0, false, err
		}

	case step.ExpectAccount != nil:
		info, err := p.account(accts, step.ExpectAccount.Name)
		if err != nil {
			return 0, false, err
		}
		if err := p.s.checkState(step.ExpectAccount, *info.Lamports, *info.Data); err != nil {
			return 0, false, err
		}

	case step.Log != "":
		port.Log(step.Log)

	case step.Return != nil:
		return *step.Return, true, nil
	}

	return sealevel.StatusSuccess, false, nil
}

func (p *scriptedProgram) account(accts []*sealevel.AccountInfo, name string) (*sealevel.AccountInfo, error) {
	key, err := p.s.Key(name)
	if err != nil {
		return nil, err
	}
	for _, info := range accts {
		if *info.Key == key {
			return info, nil
		}
	}
	return nil, errors.Errorf("account %s not passed to %s", name, p.def.Name)
}

func (p *scriptedProgram) invoke(port sealevel.Port, accts []*sealevel.AccountInfo, step *Step) (uint64, error) {
	ix, err := p.s.instruction(step.Invoke)
	if err != nil {
		return 0, err
	}

	var infos []*sealevel.AccountInfo
	if !step.Invoke.NoAccountInfos {
		infos, err = p.accountInfos(accts, step.Invoke)
		if err != nil {
			return 0, err
		}
	}

	signers := make([]sealevel.SignerSeeds, len(step.Invoke.Signers))
	for i, seeds := range step.Invoke.Signers {
		b, err := p.s.Seeds(seeds)
		if err != nil {
			return 0, err
		}
		signers[i] = b
	}

	status, err := port.Invoke(ix, infos, signers)

	switch {
	case step.ExpectError != "":
		if err := matchError(step.ExpectError, err); err != nil {
			return 0, errors.Wrap(ErrExpectation, err.Error())
		}
		return sealevel.StatusSuccess, nil
	case step.ExpectStatus != nil:
		if err != nil || status != *step.ExpectStatus {
			return 0, errors.Wrapf(ErrExpectation, "expected status %#x, got %#x (%v)", *step.ExpectStatus, status, err)
		}
		return sealevel.StatusSuccess, nil
	case step.IgnoreError:
		return sealevel.StatusSuccess, nil
	}
	return status, err
}

// accountInfos passes every account the program received, with forged
// copies substituted where the instruction asks for them.
func (p *scriptedProgram) accountInfos(accts []*sealevel.AccountInfo, def *InvokeStep) ([]*sealevel.AccountInfo, error) {
	forged := make(map[solana.PublicKey]string)
	for _, m := range def.Accounts {
		if m.Forge != "" {
			key, err := p.s.Key(m.Account)
			if err != nil {
				return nil, err
			}
			forged[key] = m.Forge
		}
	}

	seen := make(map[*sealevel.AccountInfo]bool)
	infos := make([]*sealevel.AccountInfo, 0, len(accts))
	for _, info := range accts {
		if seen[info] {
			continue
		}
		seen[info] = true

		field, ok := forged[*info.Key]
		if !ok {
			infos = append(infos, info)
			continue
		}
		f, err := forge(info, field)
		if err != nil {
			return nil, err
		}
		infos = append(infos, f)
	}
	return infos, nil
}

func forge(info *sealevel.AccountInfo, field string) (*sealevel.AccountInfo, error) {
	copied := info.Forge()
	f := *info
	switch field {
	case "key":
		f.Key = copied.Key
	case "owner":
		f.Owner = copied.Owner
	case "lamports":
		f.Lamports = copied.Lamports
	case "data":
		f.Data = copied.Data
	case "all":
		return copied, nil
	default:
		return nil, errors.Errorf("cannot forge field %q", field)
	}
	return &f, nil
}

func (p *scriptedProgram) checkReturnData(port sealevel.Port, want *ReturnDataExpect) error {
	programId, data := port.GetReturnData()
	wantData, err := DecodeBytes(want.Data)
	if err != nil {
		return err
	}
	return p.s.checkReturnData(want, programId, data, wantData)
}

func (s *Scenario) checkReturnData(want *ReturnDataExpect, programId solana.PublicKey, data, wantData []byte) error {
	if want.Program != "" {
		wantId, err := s.Key(want.Program)
		if err != nil {
			return err
		}
		if programId != wantId {
			return errors.Wrapf(ErrExpectation, "return data set by %s, expected %s", s.NameOf(programId), want.Program)
		}
	}
	if !bytes.Equal(data, wantData) {
		return errors.Wrapf(ErrExpectation, "return data %x, expected %x", data, wantData)
	}
	return nil
}

func (s *Scenario) checkState(want *AccountState, lamports uint64, data []byte) error {
	if want.Lamports != nil && lamports != *want.Lamports {
		return errors.Wrapf(ErrExpectation, "%s has %d lamports, expected %d", want.Name, lamports, *want.Lamports)
	}
	if want.Data != nil {
		wantData, err := DecodeBytes(*want.Data)
		if err != nil {
			return err
		}
		if !bytes.Equal(data, wantData) {
			return errors.Wrapf(ErrExpectation, "%s holds %x, expected %x", want.Name, data, wantData)
		}
	}
	return nil
}
