// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
)

// Environment variables that provide the defaults of the flags. They can
// also be set in a .env file in the working directory.
var envFlags = map[string]string{
	"debug":        "CACHESIM_DEBUG",
	"record":       "CACHESIM_RECORD",
	"monitor-port": "CACHESIM_MONITOR_PORT",
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "cachesim BLOCKSIZE L1_SIZE L1_ASSOC L2_SIZE L2_ASSOC " +
			"PREF_N PREF_M trace_file",
		Short: "cachesim replays a memory trace through an L1 and an " +
			"optional L2 write-back cache.",
		Long: `cachesim replays a trace of "r <hex-address>" and ` +
			`"w <hex-address>" records through a write-back, write-allocate ` +
			`cache hierarchy with LRU replacement. It prints the ` +
			`configuration, the final contents of every level and the ` +
			`measurements. An L2_SIZE of 0 means there is no L2.`,
		Args:              cobra.ExactArgs(8),
		PersistentPreRunE: loadEnv,
		RunE:              runSimulation,
	}

	rootCmd.Flags().Bool("debug", false,
		"Log every access, eviction and memory transaction to stderr.")
	rootCmd.Flags().String("record", "",
		"Record the accesses and the measurements into a SQLite database "+
			"with this name.")
	rootCmd.Flags().Bool("monitor", false,
		"Serve the progress and the statistics over HTTP.")
	rootCmd.Flags().Int("monitor-port", 0,
		"The port of the monitoring server. 0 picks a random port.")
	rootCmd.Flags().Bool("open-browser", false,
		"Open the monitoring server in a browser.")

	rootCmd.AddCommand(newSweepCmd())

	return rootCmd
}

// Execute runs the root command and exits with 1 on failure. It exits
// through atexit so that registered handlers, such as the flush of a data
// recorder, run on every path.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadEnv(cmd *cobra.Command, _ []string) error {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	for name, env := range envFlags {
		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}

		flag := cmd.Flags().Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}

		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}

	return nil
}

var paramNames = []string{
	"BLOCKSIZE", "L1_SIZE", "L1_ASSOC", "L2_SIZE", "L2_ASSOC",
	"PREF_N", "PREF_M",
}

// parseConfig reads the numeric parameters in command-line order. Missing
// trailing parameters are left as zero.
func parseConfig(args []string) (hierarchy.Config, error) {
	if len(args) > len(paramNames) {
		return hierarchy.Config{}, fmt.Errorf(
			"expected at most %d parameters, got %d", len(paramNames), len(args))
	}

	values := make([]int, len(paramNames))

	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return hierarchy.Config{}, fmt.Errorf(
				"%s must be an integer, got %q", paramNames[i], arg)
		}

		values[i] = v
	}

	return hierarchy.Config{
		BlockSize: values[0],
		L1Size:    values[1],
		L1Assoc:   values[2],
		L2Size:    values[3],
		L2Assoc:   values[4],
		PrefN:     values[5],
		PrefM:     values[6],
	}, nil
}
