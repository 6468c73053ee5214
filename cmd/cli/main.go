// Command pitch-engine reads a SessionInput JSON from a file argument (or
// stdin), calibrates and compares the pitches, and writes the SessionLog JSON
// to stdout. Logs go to stderr.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/cxd309/pitch-engine/internal/engine"
	"github.com/cxd309/pitch-engine/internal/export"
	"github.com/cxd309/pitch-engine/internal/integrator"
	"github.com/cxd309/pitch-engine/internal/service"
)

func main() {
	var (
		configPath = flag.String("config", "", "JSON config file; replaces the session's config")
		xlsxPath   = flag.String("xlsx", "", "also write the session log to this .xlsx file")
		workers    = flag.Int("workers", 0, "concurrent calibrations (0 = GOMAXPROCS)")
		steps      = flag.Int("steps", 0, "override integration steps")
		method     = flag.String("method", "", "override integrator (euler, rk2, rk4)")
		parallel   = flag.Bool("parallel-search", false, "evaluate search neighbors concurrently")
		verbose    = flag.Bool("verbose", false, "development logging at debug level")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [input.json]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var data []byte
	if flag.NArg() > 0 {
		data, err = os.ReadFile(flag.Arg(0))
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}

	var input engine.SessionInput
	if err := json.Unmarshal(data, &input); err != nil {
		logger.Fatal("invalid input JSON", zap.Error(err))
	}

	cfg := service.DefaultConfig()
	if input.Config != nil {
		cfg = *input.Config
	}
	if *configPath != "" {
		if cfg, err = service.LoadConfig(*configPath); err != nil {
			logger.Fatal("loading config", zap.Error(err))
		}
	}
	if *steps > 0 {
		cfg.Steps = *steps
	}
	if *method != "" {
		if cfg.Method, err = integrator.ParseName(*method); err != nil {
			logger.Fatal("parsing -method", zap.Error(err))
		}
	}
	if *parallel {
		cfg.ParallelSearch = true
	}
	input.Config = &cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log, err := engine.Run(ctx, input, engine.WithLogger(logger), engine.WithWorkers(*workers))
	if err != nil {
		logger.Fatal("session failed", zap.Error(err))
	}
	logger.Info("session finished",
		zap.String("session_id", log.Meta.SessionID),
		zap.Int("calibrations", len(log.Calibrations)),
		zap.Int("comparisons", len(log.Comparisons)),
	)

	if *xlsxPath != "" {
		if err := export.SaveWorkbook(*xlsxPath, log); err != nil {
			logger.Fatal("exporting workbook", zap.Error(err))
		}
	}

	out, err := json.Marshal(log)
	if err != nil {
		logger.Fatal("marshaling output", zap.Error(err))
	}
	fmt.Println(string(out))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
