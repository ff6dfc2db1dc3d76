// Command fieldd hosts a scene behind the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"geometree/internal/api"
	"geometree/internal/app"
	"geometree/internal/host"
	_ "geometree/internal/scenes/metaball"
	_ "geometree/internal/scenes/terrain"
	"geometree/internal/store"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func processSignal(errs chan error) {
	go func(errs chan error) {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}(errs)
}

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	addr := flag.String("addr", ":8081", "HTTP listen address (API)")
	service := flag.String("service", "fieldd", "trace service name")
	trace := flag.Bool("trace", false, "report traces to the local agent")
	flag.Parse()

	logger := log.New(os.Stderr, "(fieldd) > ", log.LstdFlags)
	errs := make(chan error, 2)
	processSignal(errs)

	if *trace {
		tracer.Start(
			tracer.WithServiceName(*service),
			tracer.WithAnalytics(true),
		)
		defer tracer.Stop()
	}

	sc, err := app.BuildScene(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	if c, ok := sc.(io.Closer); ok {
		defer c.Close()
	}
	scene, ok := sc.(api.Scene)
	if !ok {
		logger.Fatalf("scene %q cannot be served", sc.Name())
	}

	var st *store.Store
	if cfg.DB != "" {
		st, err = store.Open(cfg.DB)
		if err != nil {
			logger.Fatalf("open %s: %v", cfg.DB, err)
		}
		defer st.Close()
		if found, err := app.LoadScene(context.Background(), st, scene, cfg.Load); err != nil {
			logger.Printf("load %q: %v", cfg.Load, err)
		} else if found {
			logger.Printf("restored %q", cfg.Load)
		}
	}

	loop := host.New(scene, cfg.TPS)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := loop.Run(ctx); err != nil {
			errs <- err
		}
	}()

	api.New(loop, scene, st, *service).Start(*addr, errs)
	logger.Println(<-errs)
	loop.Stop()
}
