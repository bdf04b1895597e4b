/*
Package main is the entry point for the sorta CLI.

sorta watches a downloads folder and files each new document into the
course folder an AI classifier picks for it. Moves are recorded and can be
undone; corrections are fed back to the classifier as hints.

Usage:

	sorta [command]

Available Commands:

	watch       Watch a folder and classify arriving files
	classify    Classify a single file
	move        Move a file into a folder
	undo        Undo the last move
	review      Review a folder interactively
	mcp         Start the MCP server
	history     Show or manage corrections and activity
	rules       Manage filename rules

Examples:

	# File new downloads automatically
	sorta watch ~/Downloads --auto

	# Review a folder by hand
	sorta review ~/Downloads
*/
package main

import (
	"os"

	"github.com/custodia-labs/sorta/internal/adapters/driving/cli"
	"github.com/custodia-labs/sorta/internal/app"
)

// Version information (set via ldflags during build)
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(app.Bootstrap)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
