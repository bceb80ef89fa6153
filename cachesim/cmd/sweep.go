package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
	"github.com/sarchlab/cachesim/mem/trace"
)

func newSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Replay one trace against many configurations.",
		Long: "`sweep --trace FILE --config BS,L1,A1,L2,A2 ...` replays the " +
			"trace against every configuration in parallel and prints the " +
			"measurements as a table.",
		Args: cobra.NoArgs,
		RunE: runSweep,
	}

	sweepCmd.Flags().String("trace", "", "The trace file to replay.")
	sweepCmd.Flags().StringArray("config", nil,
		"A comma-separated list of BLOCKSIZE, L1_SIZE, L1_ASSOC, L2_SIZE, "+
			"L2_ASSOC and optionally PREF_N, PREF_M. Can be repeated.")
	sweepCmd.Flags().Int("parallel", runtime.NumCPU(),
		"The number of configurations replayed at the same time.")

	_ = sweepCmd.MarkFlagRequired("trace")
	_ = sweepCmd.MarkFlagRequired("config")

	return sweepCmd
}

func runSweep(cmd *cobra.Command, _ []string) error {
	traceFile, _ := cmd.Flags().GetString("trace")
	configArgs, _ := cmd.Flags().GetStringArray("config")
	parallel, _ := cmd.Flags().GetInt("parallel")

	configs := make([]hierarchy.Config, 0, len(configArgs))
	for _, arg := range configArgs {
		config, err := parseConfig(strings.Split(arg, ","))
		if err != nil {
			return fmt.Errorf("config %q: %w", arg, err)
		}

		configs = append(configs, config)
	}

	f, err := os.Open(traceFile)
	if err != nil {
		return err
	}
	defer f.Close()

	accesses, err := trace.NewReader(f).ReadAll()
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	results, err := hierarchy.Sweep(cmd.Context(), accesses, configs, parallel)
	if err != nil {
		return err
	}

	return writeSweepTable(cmd, results)
}

func writeSweepTable(cmd *cobra.Command, results []hierarchy.Result) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(w,
		"BLOCKSIZE\tL1_SIZE\tL1_ASSOC\tL2_SIZE\tL2_ASSOC\t"+
			"L1_MISS_RATE\tL2_MISS_RATE\tMEMORY_TRAFFIC")

	for _, r := range results {
		c := r.Config
		m := r.Measurements
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%.4f\t%.4f\t%d\n",
			c.BlockSize, c.L1Size, c.L1Assoc, c.L2Size, c.L2Assoc,
			m.L1MissRate, m.L2MissRate, m.MemoryTraffic)
	}

	return w.Flush()
}
