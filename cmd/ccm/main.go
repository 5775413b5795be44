// Package main provides the entry point for ccm.
//
// ccm creates, configures, starts and stops clusters of database nodes
// running on the local host:
//
//	ccm create -n 3 --install-dir /opt/cassandra test
//	ccm -c test start
//	ccm -c test status
package main

import (
	"os"

	"github.com/yndnr/ccm-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
