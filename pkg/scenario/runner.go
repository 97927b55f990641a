package scenario

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.firedancer.io/cpi/pkg/accounts"
	"go.firedancer.io/cpi/pkg/sealevel"
	sol "go.firedancer.io/cpi/pkg/solana"
	"k8s.io/klog/v2"
)

// Report is the outcome of one scenario.
type Report struct {
	Name     string
	Result   *sealevel.Result
	Failures []string
	// Hashes maps account names to the base58 hash of their final state.
	Hashes   map[string]string
	Err      error
	Duration time.Duration
}

func (r *Report) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// Seed writes the scenario's accounts and program accounts to store.
func (s *Scenario) Seed(store accounts.Accounts) error {
	for _, p := range s.Programs {
		k := [32]byte(s.keys[p.Name])
		acct := &accounts.Account{
			Lamports:   1,
			Owner:      sol.BpfLoader2Addr,
			Executable: true,
		}
		if err := store.SetAccount(&k, acct); err != nil {
			return errors.Wrapf(err, "seeding program %s", p.Name)
		}
	}

	for _, a := range s.Accounts {
		owner := sol.SystemProgramAddr
		if a.Owner != "" {
			var err error
			if owner, err = s.Key(a.Owner); err != nil {
				return errors.Wrapf(err, "owner of %s", a.Name)
			}
		}
		data, err := DecodeBytes(a.Data)
		if err != nil {
			return errors.Wrapf(err, "data of %s", a.Name)
		}
		k := [32]byte(s.keys[a.Name])
		acct := &accounts.Account{
			Lamports:  a.Lamports,
			Data:      data,
			Owner:     owner,
			RentEpoch: a.RentEpoch,
		}
		if err := store.SetAccount(&k, acct); err != nil {
			return errors.Wrapf(err, "seeding account %s", a.Name)
		}
	}
	return nil
}

// Run seeds store, executes the scenario's instruction and checks its
// expectations against the result and the committed state.
func Run(s *Scenario, store accounts.Accounts) *Report {
	report := &Report{Name: s.Name}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	if err := s.Seed(store); err != nil {
		report.Err = err
		return report
	}

	f, err := s.RuntimeFeatures()
	if err != nil {
		report.Err = err
		return report
	}
	rt, err := sealevel.NewRuntime(store, s.Registry(), s.RuntimeLimits(), f)
	if err != nil {
		report.Err = err
		return report
	}

	ix, err := s.instruction(&s.Instruction)
	if err != nil {
		report.Err = errors.Wrap(err, "instruction")
		return report
	}

	result, err := rt.Execute(ix)
	if err != nil {
		report.Err = err
		return report
	}
	report.Result = result

	report.Failures = s.check(result, store)
	report.Hashes, report.Err = s.hashes(store)

	if report.Passed() {
		klog.V(1).Infof("scenario %s passed", s.Name)
	} else {
		klog.Infof("scenario %s failed: %v", s.Name, report.Failures)
	}
	return report
}

func (s *Scenario) check(result *sealevel.Result, store accounts.Accounts) []string {
	var failures []string
	fail := func(format string, args ...interface{}) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	want := &s.Expect
	if want.Error != "" {
		if err := matchError(want.Error, result.Err); err != nil {
			fail("%v", err)
		}
	} else if result.Err != nil {
		fail("unexpected error: %v", result.Err)
	}

	wantStatus := sealevel.StatusSuccess
	if want.Status != nil {
		wantStatus = *want.Status
	}
	if want.Error == "" && result.Status != wantStatus {
		fail("status %#x, expected %#x", result.Status, wantStatus)
	}

	if want.ReturnData != nil {
		wantData, err := DecodeBytes(want.ReturnData.Data)
		if err != nil {
			fail("%v", err)
		} else if err := s.checkReturnData(want.ReturnData, result.ReturnProgramId, result.ReturnData, wantData); err != nil {
			fail("%v", err)
		}
	}

	for i := range want.Accounts {
		state := &want.Accounts[i]
		key, err := s.Key(state.Name)
		if err != nil {
			fail("%v", err)
			continue
		}
		k := [32]byte(key)
		acct, err := store.GetAccount(&k)
		if err != nil {
			fail("reading %s: %v", state.Name, err)
			continue
		}
		if acct == nil {
			acct = &accounts.Account{}
		}
		if err := s.checkState(state, acct.Lamports, acct.Data); err != nil {
			fail("%v", err)
		}
	}

	return failures
}

func (s *Scenario) hashes(store accounts.Accounts) (map[string]string, error) {
	out := make(map[string]string, len(s.Accounts))
	for _, a := range s.Accounts {
		k := [32]byte(s.keys[a.Name])
		acct, err := store.GetAccount(&k)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", a.Name)
		}
		if acct == nil {
			continue
		}
		h := accounts.Hash(k, acct)
		out[a.Name] = base58.Encode(h[:])
	}
	return out, nil
}

// StoreFunc supplies the account store for one scenario.
type StoreFunc func(s *Scenario) (accounts.Accounts, error)

// MemStore gives every scenario a fresh in-memory store.
func MemStore(*Scenario) (accounts.Accounts, error) {
	return accounts.NewMemAccounts(), nil
}

type runTask struct {
	idx      int
	scenario *Scenario
}

// RunAll runs scenarios on a pool of workers. Reports are returned in
// input order; onDone, if set, is called from the worker as each one
// finishes.
func RunAll(scenarios []*Scenario, workers int, newStore StoreFunc, onDone func(*Report)) ([]*Report, error) {
	if workers < 1 {
		workers = 1
	}
	reports := make([]*Report, len(scenarios))

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(workers, func(i interface{}) {
		defer wg.Done()
		task := i.(runTask)

		store, err := newStore(task.scenario)
		if err != nil {
			reports[task.idx] = &Report{Name: task.scenario.Name, Err: err}
		} else {
			reports[task.idx] = Run(task.scenario, store)
		}
		if onDone != nil {
			onDone(reports[task.idx])
		}
	})
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	for idx, s := range scenarios {
		wg.Add(1)
		if err := pool.Invoke(runTask{idx: idx, scenario: s}); err != nil {
			wg.Done()
			reports[idx] = &Report{Name: s.Name, Err: err}
		}
	}
	wg.Wait()
	return reports, nil
}

// SortedHashes returns the names in Hashes in a stable order.
func (r *Report) SortedHashes() []string {
	names := make([]string, 0, len(r.Hashes))
	for name := range r.Hashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
