// Package cmn provides common constants, types, and utilities shared by the
// DTL's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

// read-mostly, set once at DTL.Create and read without locking thereafter.
type readMostly struct {
	verbosity  int
	testingEnv bool
}

var Rom readMostly

// Set populates the read-mostly knobs from a loaded Config. Called once,
// before any actor connects.
func (rom *readMostly) Set(cfg *Config) {
	rom.verbosity = cfg.Verbosity
	rom.testingEnv = cfg.TestingEnv
}

func (rom *readMostly) Verbosity() int    { return rom.verbosity }
func (rom *readMostly) TestingEnv() bool  { return rom.testingEnv }
func (rom *readMostly) FastV(want int) bool { return rom.verbosity >= want }
