// Package cmd contains the sqltool CLI commands, composed through fx and
// built on urfave/cli. Commands receive their shared collaborators
// (configuration, version info) via fx parameter structs and are collected
// into the root command by the module's "commands" group.
package cmd
