package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/robotalks/tagback/pkg/access"
	"github.com/robotalks/tagback/pkg/console"
	"github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/publish"
	"github.com/robotalks/tagback/pkg/reader"
)

func init() {
	reader.SetupFlags()
	access.SetupFlags()
	publish.SetupFlags()
}

func main() {
	flag.Parse()

	conf := reader.Default()
	r := conf.MustOpen()
	defer r.Close()
	ctl := access.Default().MustNewController()

	loop := framework.NewLoop()
	loop.Interval = conf.Interval
	loop.Add(conf.NewScanner(r), ctl, publish.Default())
	console.Stdout.Println("Scan an RFID badge...")
	loop.RunOrFail(r)
}
