package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/robotalks/tagback/pkg/bridge"
	"github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/indicator"
	"github.com/robotalks/tagback/pkg/publish"
	"github.com/robotalks/tagback/pkg/reader"
)

func init() {
	// a halted card stops answering polls, presence needs it awake.
	reader.Default().HaltAfterRead = false
	reader.SetupFlags()
	indicator.SetupFlags()
	bridge.SetupFlags()
	publish.SetupFlags()
}

func main() {
	flag.Parse()

	conf := reader.Default()
	r := conf.MustOpen()
	defer r.Close()
	ctl := indicator.NewController(indicator.Default().MustOpen())

	loop := framework.NewLoop()
	loop.Interval = conf.Interval
	loop.Add(conf.NewScanner(r), ctl, publish.Default())
	if srv := bridge.Default(); srv.Enabled() {
		loop.Add(srv.NewServer(conf.Name, ctl.Status))
	}
	loop.RunOrFail(r)
}
