package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/chrissnell/surfenergy/internal/app"
	"github.com/chrissnell/surfenergy/internal/constants"
	"github.com/chrissnell/surfenergy/internal/log"
	"github.com/chrissnell/surfenergy/internal/types"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the model configuration (YAML)")
	scenarioFile := flag.String("scenario", "scenario.yaml", "Path to the scenario holding the cells to step (YAML)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("surfbal %s\n", constants.Version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgPath, _ := filepath.Abs(*cfgFile)
	cfg, err := types.NewConfig(cfgPath)
	if err != nil {
		log.Fatalf("error reading config file. Did you pass the -config flag? Run with -h for help: %v", err)
	}

	scenario, err := types.LoadScenario(*scenarioFile)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application := app.New(cfg, log.GetSugaredLogger())
	summaries, err := application.Run(ctx, scenario)
	if err != nil {
		log.Fatalf("Application error: %v", err)
	}

	printSummaries(summaries)
}

func printSummaries(summaries []app.CellSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CELL\tTSURF\tMELT\tPPT_WET\tPPT_DRY\tITER\tNODES\tRESOLVED\tRESIDUAL\tRESUMED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%.4f\t%.6f\t%.6f\t%.6f\t%d\t%d\t%t\t%.3g\t%t\n",
			s.ID, s.Tsurf, s.Melt, s.Ppt[types.Wet], s.Ppt[types.Dry],
			s.Iterations, s.ActiveNodes, s.Resolved, s.Residual, s.Resumed)
	}
	w.Flush()
}
