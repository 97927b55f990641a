package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.firedancer.io/cpi/cmd/cpisim/run"
	"go.firedancer.io/cpi/cmd/cpisim/syscalls"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "cpisim",
	Short: "Cross-program invocation simulator",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		&run.Cmd,
		&syscalls.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
