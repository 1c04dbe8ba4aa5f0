package main

import (
	"github.com/robotalks/tagback/pkg/access"
	"github.com/robotalks/tagback/pkg/cli/sh"
	"github.com/robotalks/tagback/pkg/reader"
	"github.com/robotalks/tagback/pkg/uplink"

	_ "github.com/robotalks/tagback/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	reader.SetupFlags()
	access.SetupFlags()
	uplink.SetupFlags()
}

func main() {
	sh.Main()
}
