package main

import (
	"github.com/BurntSushi/toml"

	"github.com/shareef-labs/jobsys"
)

// fileConfig mirrors the recognized option set from SPEC_FULL.md §6, loaded
// from an optional TOML file. Zero fields fall back to jobsys' own
// defaults, so a caller only needs to name the fields they want to
// override.
type fileConfig struct {
	NumThreads      int    `toml:"num_threads"`
	NumUserThreads  int    `toml:"num_user_threads"`
	NormalQueueSize int    `toml:"normal_queue_size"`
	WorkerQueueSize int    `toml:"worker_queue_size"`
	MainQueueSize   int    `toml:"main_queue_size"`
	RandSeed        uint64 `toml:"rand_seed"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

// resolveOptions applies flag > file > default precedence: a non-zero flag
// value always wins, otherwise the file's value is used, otherwise
// jobsys.Options' own defaults apply once Initialize is called.
func resolveOptions(file fileConfig, threadsFlag int) jobsys.Options {
	opts := jobsys.Options{
		NumThreads:      file.NumThreads,
		NumUserThreads:  file.NumUserThreads,
		NormalQueueSize: file.NormalQueueSize,
		WorkerQueueSize: file.WorkerQueueSize,
		MainQueueSize:   file.MainQueueSize,
		RandSeed:        file.RandSeed,
	}
	if threadsFlag != 0 {
		opts.NumThreads = threadsFlag
	}
	return opts
}
