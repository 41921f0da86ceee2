// qshd replays QScalp order-log files through the L2 conversion
// pipeline, persists the event stream in a pebble store and serves it
// over HTTP and WebSocket.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/qscalp/qsh-go/params"
	"github.com/qscalp/qsh-go/pkg/api"
	"github.com/qscalp/qsh-go/pkg/storage"
	"github.com/qscalp/qsh-go/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	addr := flag.String("addr", cfg.API.Addr, "listen address")
	depth := flag.Int("depth", cfg.Pipeline.Depth, "snapshot depth in levels per side")
	speed := flag.Float64("speed", cfg.API.ReplaySpeed, "replay pacing: 1.0 = recorded speed, 0 = flat out")
	storePath := flag.String("store", cfg.Store.Path, "pebble store path, empty disables persistence")
	flag.Parse()

	logger, err := util.NewLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	var store *storage.EventStore
	if *storePath != "" {
		store, err = storage.OpenEventStore(*storePath)
		if err != nil {
			sugar.Fatalw("store_open_failed", "path", *storePath, "err", err)
		}
		defer store.Close()
	}

	server := api.NewServer(store, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, input := range flag.Args() {
		input := input
		replay, err := api.NewReplay(input, *depth, *speed, store, server.Hub(), sugar)
		if err != nil {
			sugar.Fatalw("replay_open_failed", "input", input, "err", err)
		}
		sugar.Infow("replay_starting",
			"input", input,
			"instrument", replay.Header.Instrument,
			"recorder", replay.Header.Recorder)
		go func() {
			if err := server.StartReplay(ctx, replay); err != nil && ctx.Err() == nil {
				sugar.Errorw("replay_failed", "input", input, "err", err)
			}
		}()
	}

	go func() {
		if err := server.Start(*addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
}
