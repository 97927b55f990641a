package run

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/textio"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.firedancer.io/cpi/pkg/accounts"
	"go.firedancer.io/cpi/pkg/scenario"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Execute scenario files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,

		SilenceUsage: true,
	}

	workers      int
	dbPath       string
	metricsAddr  string
	maxCallDepth int
	format       string
)

func init() {
	Cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of scenarios to run concurrently")
	Cmd.Flags().StringVar(&dbPath, "db", "", "Persist accounts to a bbolt database at this path")
	Cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address until interrupted")
	Cmd.Flags().IntVar(&maxCallDepth, "max-call-depth", -1, "Override the call depth limit of every scenario")
	Cmd.Flags().StringVarP(&format, "format", "f", "auto", "Output format (auto, text, yaml)")
}

func run(c *cobra.Command, args []string) error {
	ctx := c.Context()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				klog.Errorf("metrics server: %s", err)
			}
		}()
		defer srv.Close()
		klog.Infof("serving metrics on %s", metricsAddr)
	}

	scenarios, err := loadScenarios(args)
	if err != nil {
		return err
	}

	newStore := scenario.StoreFunc(scenario.MemStore)
	if dbPath != "" {
		db, err := accounts.OpenBoltAccounts(dbPath)
		if err != nil {
			return errors.Wrap(err, "opening accounts db")
		}
		defer db.Close()
		newStore = func(*scenario.Scenario) (accounts.Accounts, error) {
			return db, nil
		}
		// scenarios sharing one database must not interleave
		workers = 1
	}

	var onDone func(*scenario.Report)
	var progress *mpb.Progress
	if len(scenarios) > 1 && isatty.IsTerminal(os.Stderr.Fd()) {
		progress = mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(40))
		bar := progress.AddBar(int64(len(scenarios)),
			mpb.PrependDecorators(decor.Name("scenarios")),
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
		)
		onDone = func(*scenario.Report) { bar.Increment() }
	}

	reports, err := scenario.RunAll(scenarios, workers, newStore, onDone)
	if err != nil {
		return errors.Wrap(err, "running scenarios")
	}
	if progress != nil {
		progress.Wait()
	}

	out := c.OutOrStdout()
	switch resolveFormat(format) {
	case "yaml":
		err = writeYAML(out, scenarios, reports)
	case "text":
		err = writeText(out, scenarios, reports)
	default:
		err = errors.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return errors.Wrap(err, "writing report")
	}

	failed := 0
	avg := ewma.NewMovingAverage()
	for _, r := range reports {
		if !r.Passed() {
			failed++
		}
		avg.Add(float64(r.Duration))
	}
	klog.Infof("ran %d scenarios, moving average %s per scenario", len(reports), time.Duration(avg.Value()))

	if metricsAddr != "" {
		klog.Infof("done, serving metrics until interrupted")
		<-ctx.Done()
	}
	if failed > 0 {
		return errors.Errorf("%d of %d scenarios failed", failed, len(reports))
	}
	return nil
}

// loadScenarios parses scenario files concurrently and applies the
// command line overrides.
func loadScenarios(paths []string) ([]*scenario.Scenario, error) {
	scenarios := make([]*scenario.Scenario, len(paths))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			s, err := scenario.Load(path)
			if err != nil {
				return err
			}
			if maxCallDepth >= 0 {
				if s.Limits == nil {
					s.Limits = new(scenario.LimitsConfig)
				}
				depth := maxCallDepth
				s.Limits.MaxCallDepth = &depth
			}
			scenarios[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scenarios, nil
}

func resolveFormat(f string) string {
	if f != "auto" {
		return f
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return "text"
	}
	return "yaml"
}

func writeText(out io.Writer, scenarios []*scenario.Scenario, reports []*scenario.Report) error {
	for i, r := range reports {
		s := scenarios[i]
		verdict := "PASS"
		if !r.Passed() {
			verdict = "FAIL"
		}
		fmt.Fprintf(out, "%s %s\n", verdict, r.Name)

		w := textio.NewPrefixWriter(out, "    ")
		if r.Err != nil {
			fmt.Fprintf(w, "error: %s\n", r.Err)
		}
		for _, f := range r.Failures {
			fmt.Fprintf(w, "failure: %s\n", f)
		}
		if r.Result != nil {
			for _, e := range r.Result.Trace {
				fmt.Fprintf(w, "%s%s [%d] status=%#x", strings.Repeat("  ", e.StackHeight-1), s.NameOf(e.ProgramId), e.StackHeight, e.Status)
				if e.Err != nil {
					fmt.Fprintf(w, " err=%s", e.Err)
				}
				fmt.Fprintln(w)
			}
			for _, l := range r.Result.Logs {
				fmt.Fprintln(w, l)
			}
		}
		for _, name := range r.SortedHashes() {
			fmt.Fprintf(w, "%s %s\n", r.Hashes[name], name)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

type yamlTrace struct {
	Program     string `yaml:"program"`
	StackHeight int    `yaml:"stack_height"`
	Status      uint64 `yaml:"status"`
	Error       string `yaml:"error,omitempty"`
}

type yamlReport struct {
	Name       string            `yaml:"name"`
	Passed     bool              `yaml:"passed"`
	Error      string            `yaml:"error,omitempty"`
	Failures   []string          `yaml:"failures,omitempty"`
	Status     uint64            `yaml:"status"`
	Committed  bool              `yaml:"committed"`
	ReturnData string            `yaml:"return_data,omitempty"`
	Trace      []yamlTrace       `yaml:"trace,omitempty"`
	Logs       []string          `yaml:"logs,omitempty"`
	Hashes     map[string]string `yaml:"hashes,omitempty"`
}

func writeYAML(out io.Writer, scenarios []*scenario.Scenario, reports []*scenario.Report) error {
	docs := make([]yamlReport, len(reports))
	for i, r := range reports {
		doc := yamlReport{
			Name:     r.Name,
			Passed:   r.Passed(),
			Failures: r.Failures,
			Hashes:   r.Hashes,
		}
		if r.Err != nil {
			doc.Error = r.Err.Error()
		}
		if res := r.Result; res != nil {
			doc.Status = res.Status
			doc.Committed = res.Committed
			doc.Logs = res.Logs
			if len(res.ReturnData) > 0 {
				doc.ReturnData = fmt.Sprintf("0x%x", res.ReturnData)
			}
			if res.Err != nil && doc.Error == "" {
				doc.Error = res.Err.Error()
			}
			for _, e := range res.Trace {
				t := yamlTrace{
					Program:     scenarios[i].NameOf(e.ProgramId),
					StackHeight: e.StackHeight,
					Status:      e.Status,
				}
				if e.Err != nil {
					t.Error = e.Err.Error()
				}
				doc.Trace = append(doc.Trace, t)
			}
		}
		docs[i] = doc
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}
