// Package cli constructs the svnport command-line interface: the Cobra root
// command, the viper-backed configuration loader with embedded defaults, and the
// zap logger handed to the migrate subcommand.
package cli
