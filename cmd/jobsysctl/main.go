// Command jobsysctl drives the scheduler's benchmark scenarios from the
// command line, for ad-hoc measurement and for spotting regressions before
// they reach a real caller's workload.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	threadsFlag int
)

var rootCmd = &cobra.Command{
	Use:   "jobsysctl",
	Short: "Run jobsys scheduler benchmark scenarios",
	Long:  "jobsysctl drives the work-stealing scheduler through fixed benchmark scenarios (fork/join, parallel-invoke, fan-out) and reports timing and scheduler statistics.",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML file overriding scheduler options (flags still take precedence)")
	rootCmd.PersistentFlags().IntVar(&threadsFlag, "threads", 0, "number of owned worker goroutines (0 = runtime.NumCPU())")

	rootCmd.AddCommand(s1Cmd, s2Cmd, s3Cmd, s5Cmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
