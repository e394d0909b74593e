package main

import (
	"github.com/lakeview-dev/lakeview/internal/cli"
	"github.com/lakeview-dev/lakeview/internal/platform/config"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		config.Exitf("%v", err)
	}
}
