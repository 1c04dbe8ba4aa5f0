package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/robotalks/tagback/pkg/console"
	"github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/publish"
	"github.com/robotalks/tagback/pkg/reader"
	"github.com/robotalks/tagback/pkg/uplink"
)

func init() {
	reader.SetupFlags()
	uplink.SetupFlags()
	publish.SetupFlags()
}

func main() {
	flag.Parse()

	conf := reader.Default()
	r := conf.MustOpen()
	defer r.Close()
	fwd := uplink.Default().NewForwarder()

	loop := framework.NewLoop()
	loop.Interval = conf.Interval
	loop.Add(conf.NewScanner(r), uplink.NewController(fwd), publish.Default())
	console.Stdout.Printf("Logging scans to %s%s", fwd.BaseURL, fwd.Path)
	loop.RunOrFail(r)
}
