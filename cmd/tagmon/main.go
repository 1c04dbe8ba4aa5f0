package main

import (
	"flag"
	"log"

	"github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/publish"
)

func init() {
	if conf := publish.Default(); !conf.Enabled() {
		conf.BrokerURL = "mqtt://localhost:1883/tagback/"
	}
	publish.SetupFlags()
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	m, err := publish.Default().NewMonitor()
	if err != nil {
		log.Fatalln(err)
	}
	if err := framework.NewRunner().HandleSignals().Go(m).Wait(); err != nil {
		log.Fatalln(err)
	}
}
