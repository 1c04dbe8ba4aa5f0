package all

import (
	// all commands
	_ "github.com/robotalks/tagback/pkg/cli/cmds/badge"
)
