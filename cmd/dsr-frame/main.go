// Command dsr-frame reads a raw DSR bitstream file and prints each
// frame's sync word and SA bit, for inspecting encoder output.
//
// Grounded on mewkiz-flac's cmd/flac-frame/flac-frame.go (pprof-wrapped
// parse loop over one or more input files), repurposed from FLAC block
// parsing to DSR frame-header decoding; flag parsing and logging
// upgraded to spf13/pflag and charmbracelet/log to match cmd/dsrenc.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/janosch79/dsr-enc-rawopt/dsr"
)

func main() {
	var (
		profilePath string
		limit       int
	)
	flag.StringVar(&profilePath, "cpuprofile", "", "write a CPU profile to this path")
	flag.IntVar(&limit, "limit", 0, "stop after printing this many frames per file; 0 means no limit")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			logger.Fatalf("%+v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatalf("%+v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if flag.NArg() == 0 {
		logger.Fatal("usage: dsr-frame [flags] file.dsr ...")
	}
	for _, path := range flag.Args() {
		if err := dumpFrames(path, limit, logger); err != nil {
			logger.Error("dumping frames", "path", path, "err", err)
		}
	}
}

func dumpFrames(path string, limit int, logger *log.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	br := bufio.NewReader(f)

	var frame dsr.Frame
	count := 0
	for {
		if limit > 0 && count >= limit {
			break
		}
		if _, err := io.ReadFull(br, frame[:]); err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrapf(err, "reading frame %d", count)
		}

		sync, next, err := dsr.Read(frame[:], 0, 11)
		if err != nil {
			return errors.Wrapf(err, "reading sync word of frame %d", count)
		}
		sa, _, err := dsr.Read(frame[:], next, 1)
		if err != nil {
			return errors.Wrapf(err, "reading SA bit of frame %d", count)
		}
		// Bit 11 is scrambled with the 12th PRBS output bit; undo that to
		// recover the SA bit.
		prbs := dsr.NewPrbs()
		for i := 0; i < 11; i++ {
			prbs.NextBit()
		}
		sa ^= uint64(prbs.NextBit())

		parity := sync != uint64(dsr.SyncWord)
		logger.Info("frame", "index", count, "sync", fmt.Sprintf("%#x", sync), "parity", parity, "sa", sa != 0)
		count++
	}
	logger.Info("done", "path", path, "frames", count)
	return nil
}
