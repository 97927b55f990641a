package syscalls

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.firedancer.io/cpi/pkg/features"
	"go.firedancer.io/cpi/pkg/sealevel"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "syscalls",
		Short: "List syscalls and their symbol hashes",
		Args:  cobra.NoArgs,
		Run:   run,
	}

	disable []string
)

func init() {
	Cmd.Flags().StringSliceVar(&disable, "disable", nil, "Feature gates to deactivate")
}

func run(c *cobra.Command, _ []string) {
	f := features.NewFeaturesAllEnabled()
	for _, name := range disable {
		gate, ok := features.GateByName(name)
		if !ok {
			klog.Exitf("unknown feature %q", name)
		}
		f.DisableFeature(gate)
	}

	reg := sealevel.Syscalls(f)
	for _, name := range reg.Names() {
		fmt.Fprintf(c.OutOrStdout(), "%#08x  %s\n", sealevel.SymbolHash(name), name)
	}
}
