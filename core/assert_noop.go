//go:build jobsys_noassert

package core

const assertionsEnabled = false

func assert(condition bool, msg string, args ...any) {}
