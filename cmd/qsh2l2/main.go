// qsh2l2 converts QScalp order-log history files into gzipped binary
// L2 incremental event files. Input paths come from the command line,
// or from stdin one per line when no arguments are given.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/qscalp/qsh-go/params"
	"github.com/qscalp/qsh-go/pkg/convert"
	"github.com/qscalp/qsh-go/pkg/qsh"
	"github.com/qscalp/qsh-go/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	outDir := flag.String("out", cfg.Pipeline.OutDir, "output directory for converted files")
	workers := flag.Int("workers", cfg.Pipeline.Workers, "max files converted concurrently")
	flag.Parse()

	logger, err := util.NewLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	inputs := flag.Args()
	if len(inputs) == 0 {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if line := sc.Text(); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := sc.Err(); err != nil {
			sugar.Fatalw("stdin_read_failed", "err", err)
		}
	}
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: qsh2l2 [-out dir] [-workers n] file.qsh... (or paths on stdin)")
		os.Exit(2)
	}

	// Reject unusable inputs before scheduling any work.
	for _, input := range inputs {
		if filepath.Ext(input) != ".qsh" {
			sugar.Fatalw("not_a_qsh_file", "input", input)
		}
		dec, err := qsh.Open(input)
		if err != nil {
			sugar.Fatalw("open_failed", "input", input, "err", err)
		}
		stream := dec.Header.Stream
		dec.Close()
		if stream != qsh.StreamOrderLog {
			sugar.Fatalw("wrong_stream_type", "input", input, "stream", stream.String(), "want", "OrderLog")
		}
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		sugar.Fatalw("mkdir_failed", "dir", *outDir, "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("batch_starting", "files", len(inputs), "workers", *workers, "out", *outDir)
	stats := convert.Batch(ctx, sugar, inputs, *outDir, *workers)

	failed := 0
	for _, st := range stats {
		if st.Err != nil {
			failed++
		}
	}
	sugar.Infow("batch_done", "files", len(stats), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
