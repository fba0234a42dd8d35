package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/shareef-labs/jobsys"
)

func setupScheduler(cmd *cobra.Command) (*jobsys.Scheduler, *jobsys.Worker, error) {
	file, err := loadFileConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	opts := resolveOptions(file, threadsFlag)
	sched, main := jobsys.Initialize(opts, jobsys.DefaultConfig())
	return sched, main, nil
}

func printResult(cmd *cobra.Command, name string, elapsed time.Duration, stats jobsys.SchedulerStats) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, elapsed)
	fmt.Fprintf(cmd.OutOrStdout(), "  workers=%d owned=%d main_queue=%d available_jobs=%d running=%v\n",
		stats.NumWorkers, stats.NumOwned, stats.MainQueueSize, stats.AvailableJobs, stats.Running)
}

func forkJoinTouch(w *jobsys.Worker, self *jobsys.Task, touched []int32, lo, hi, blockSize int) {
	if hi-lo <= blockSize {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&touched[i], 1)
		}
		return
	}
	mid := lo + (hi-lo)/2
	left := w.TaskMake(func(w *jobsys.Worker, self *jobsys.Task) {
		forkJoinTouch(w, self, touched, lo, mid, blockSize)
	}, self)
	right := w.TaskMake(func(w *jobsys.Worker, self *jobsys.Task) {
		forkJoinTouch(w, self, touched, mid, hi, blockSize)
	}, self)
	w.Submit(left, jobsys.QueueNormal)
	w.Submit(right, jobsys.QueueNormal)
}

var s1Cmd = &cobra.Command{
	Use:   "s1",
	Short: "1,000,000-element parallel-for, split above 2500 elements",
	RunE: func(cmd *cobra.Command, args []string) error {
		sched, main, err := setupScheduler(cmd)
		if err != nil {
			return err
		}
		defer sched.Shutdown(main)

		const n = 1_000_000
		touched := make([]int32, n)

		start := time.Now()
		root := main.TaskMake(func(w *jobsys.Worker, self *jobsys.Task) {
			forkJoinTouch(w, self, touched, 0, n, 2500)
		}, nil)
		main.SubmitAndWait(root, jobsys.QueueNormal)
		elapsed := time.Since(start)

		for i, v := range touched {
			if v != 1 {
				return fmt.Errorf("index %d touched %d times, want 1", i, v)
			}
		}
		printResult(cmd, "s1", elapsed, sched.Stats())
		return nil
	},
}

var s2Cmd = &cobra.Command{
	Use:   "s2",
	Short: "100,000-element parallel-for split above 6 elements, run 5 times",
	RunE: func(cmd *cobra.Command, args []string) error {
		sched, main, err := setupScheduler(cmd)
		if err != nil {
			return err
		}
		defer sched.Shutdown(main)

		const n = 100_000
		start := time.Now()
		for run := 0; run < 5; run++ {
			touched := make([]int32, n)
			root := main.TaskMake(func(w *jobsys.Worker, self *jobsys.Task) {
				forkJoinTouch(w, self, touched, 0, n, 6)
			}, nil)
			main.SubmitAndWait(root, jobsys.QueueNormal)
			for i, v := range touched {
				if v != 1 {
					return fmt.Errorf("run %d: index %d touched %d times, want 1", run, i, v)
				}
			}
		}
		elapsed := time.Since(start)
		printResult(cmd, "s2", elapsed, sched.Stats())
		return nil
	},
}

var s3Cmd = &cobra.Command{
	Use:   "s3",
	Short: "parallel-invoke over two 500,000-element halves",
	RunE: func(cmd *cobra.Command, args []string) error {
		sched, main, err := setupScheduler(cmd)
		if err != nil {
			return err
		}
		defer sched.Shutdown(main)

		const half = 500_000
		touched := make([]int32, 2*half)

		start := time.Now()
		jobsys.ParallelInvoke(main,
			func() {
				for i := 0; i < half; i++ {
					atomic.AddInt32(&touched[i], 1)
				}
			},
			func() {
				for i := half; i < 2*half; i++ {
					atomic.AddInt32(&touched[i], 1)
				}
			},
		)
		elapsed := time.Since(start)

		for i, v := range touched {
			if v != 1 {
				return fmt.Errorf("index %d touched %d times, want 1", i, v)
			}
		}
		printResult(cmd, "s3", elapsed, sched.Stats())
		return nil
	},
}

var s5Cmd = &cobra.Command{
	Use:   "s5",
	Short: "fork 65,000 empty children from one parent",
	RunE: func(cmd *cobra.Command, args []string) error {
		sched, main, err := setupScheduler(cmd)
		if err != nil {
			return err
		}
		defer sched.Shutdown(main)

		const n = 65000
		var ran atomic.Int64

		start := time.Now()
		parent := main.TaskMake(func(w *jobsys.Worker, self *jobsys.Task) {
			for i := 0; i < n; i++ {
				child := w.TaskMake(func(*jobsys.Worker, *jobsys.Task) {
					ran.Add(1)
				}, self)
				w.Submit(child, jobsys.QueueNormal)
			}
		}, nil)
		main.SubmitAndWait(parent, jobsys.QueueNormal)
		elapsed := time.Since(start)

		if got := ran.Load(); got != n {
			return fmt.Errorf("children ran = %d, want %d", got, n)
		}
		printResult(cmd, "s5", elapsed, sched.Stats())
		return nil
	},
}
