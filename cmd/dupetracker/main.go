package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jgivc/dupetracker/internal/app"
)

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	scanDir := flag.String("scan", "", "Scan directory, save the index and exit")
	dupesMode := flag.Bool("dupes", false, "Print the duplicate report and exit")
	mdFileName := flag.String("md", "", "Write the markdown report to file (with -dupes)")
	flag.Parse()

	a := app.New(*cfgFileName)

	switch {
	case *scanDir != "":
		if err := a.ScanOnce(*scanDir); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		return
	case *dupesMode:
		if err := a.Dupes(*mdFileName); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		return
	}

	go a.Start()

	c := make(chan os.Signal, 1)
	defer close(c)
	done := make(chan struct{})

	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	go func() {
		defer close(done)

		for sig := range c {
			switch sig {
			case syscall.SIGUSR1:
				go a.Scan()
			case syscall.SIGTERM, syscall.SIGINT:
				fmt.Println("Received termination signal. Shutting down...")
				done <- struct{}{}

				return
			}
		}
	}()

	<-done
	a.Stop()
	time.Sleep(2 * time.Second)
	fmt.Println("done")
}
