// Package cli assembles the forgetree command-line application: a Cobra
// command hierarchy on top of viper-loaded configuration and a zap structured
// logger. Every subcommand is a thin wrapper over the worktree, manifest,
// sync, and snapshot services.
package cli
