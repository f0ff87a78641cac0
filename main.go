package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allape/vmclipd/bridge"
	"github.com/allape/vmclipd/bridge/mailbox"
	"github.com/allape/vmclipd/config"
	"github.com/allape/vmclipd/factory"
	"github.com/allape/vmclipd/logger"
)

var log = logger.New("[main]")

func main() {
	conf, err := config.GetConfig()
	if err != nil {
		log.Fatalln("get config:", err)
	}

	g, err := factory.GateFromConfig(conf)
	if err != nil {
		log.Fatalln("gate from config:", err)
	}
	defer func() {
		if g != nil {
			_ = g.Close()
		}
	}()

	cd, err := factory.ClipboardFromConfig(conf)
	if err != nil {
		log.Fatalln("clipboard from config:", err)
	}
	defer func() {
		if cd != nil {
			_ = cd.Close()
		}
	}()

	page, err := mailbox.New()
	if err != nil {
		log.Fatalln("allocate mailbox page:", err)
	}
	defer func() {
		_ = page.Close()
	}()

	b := bridge.New(g, page, cd, &bridge.Options{
		PollInterval: time.Duration(conf.Bridge.PollIntervalMS) * time.Millisecond,
		MaxTransfer:  uint32(conf.Bridge.MaxTransfer),
	})

	err = b.Register()
	if err != nil {
		log.Fatalln("register mailbox page:", err)
	}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Serve(stop)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	log.Println("started")
	sig := <-sigs
	log.Println("exiting with", sig)

	close(stop)
	<-done
}
