// Package utils hosts the CLI plumbing shared by commands: the Viper-backed
// ConfigurationLoader, the zap LoggerFactory and the context accessor the root
// command uses to hand settings to subcommands.
package utils
