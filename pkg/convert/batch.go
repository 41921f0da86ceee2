package convert

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qscalp/qsh-go/pkg/qsh"
	"github.com/qscalp/qsh-go/pkg/storage"
)

// Stat summarizes one file's conversion. Err is per-file: a corrupt
// input never stops the batch.
type Stat struct {
	Input        string
	Output       string
	Transactions int
	Events       int
	Err          error
}

// Batch converts the given OrderLog files into gzipped L2 event files
// in outDir. Files are processed in parallel, at most workers at a
// time; each file gets its own decoder stack and book, so there is no
// shared state between jobs.
func Batch(ctx context.Context, log *zap.SugaredLogger, inputs []string, outDir string, workers int) []Stat {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	stats := make([]Stat, len(inputs))
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				stats[i] = Stat{Input: input, Err: err}
				return nil
			}
			stats[i] = convertFile(input, outDir)
			if st := stats[i]; st.Err != nil {
				log.Errorw("convert_failed", "input", st.Input, "err", st.Err)
			} else {
				log.Infow("convert_done", "input", st.Input, "output", st.Output,
					"transactions", st.Transactions, "events", st.Events)
			}
			return nil
		})
	}
	g.Wait()
	return stats
}

// OutputName maps an input file name to its converted counterpart:
// the .qsh suffix is replaced with .bin.
func OutputName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".bin"
}

func convertFile(input, outDir string) Stat {
	st := Stat{Input: input}

	dec, err := qsh.Open(input)
	if err != nil {
		st.Err = err
		return st
	}
	defer dec.Close()

	src, err := dec.OrderLog()
	if err != nil {
		st.Err = err
		return st
	}

	st.Output = filepath.Join(outDir, OutputName(input))
	f, err := os.Create(st.Output)
	if err != nil {
		st.Err = qsh.WrapIo("create", err)
		return st
	}
	defer f.Close()

	w := storage.NewEventWriter(f)
	c := NewConverter(src)
	for {
		events, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			st.Err = err
			return st
		}
		if err := w.Write(events); err != nil {
			st.Err = err
			return st
		}
		st.Transactions++
		st.Events += len(events)
	}
	if err := w.Close(); err != nil {
		st.Err = qsh.WrapIo("close", err)
	}
	return st
}
