// Command can-delay analyses a logic-analyser capture: the trigger latency
// of the time-carrier CAN frame and the delay between the primary and
// secondary navigation streams.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/can-delay/internal/analysis"
	"github.com/banshee-data/can-delay/internal/api"
	"github.com/banshee-data/can-delay/internal/config"
	"github.com/banshee-data/can-delay/internal/db"
	"github.com/banshee-data/can-delay/internal/monitoring"
	"github.com/banshee-data/can-delay/internal/report"
	"github.com/banshee-data/can-delay/internal/security"
	"github.com/banshee-data/can-delay/internal/version"
)

const defaultDBPath = "can-delay.db"

type options struct {
	digital     string
	can         string
	configPath  string
	dbPath      string
	plot        string
	latencyPlot string
	chart       string
	listen      string
	verbose     bool
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("can-delay", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.digital, "digital", "", "Digital trace export (CSV)")
	fs.StringVar(&o.can, "can", "", "CAN decode table export (CSV)")
	fs.StringVar(&o.configPath, "config", "", "Analysis config JSON (defaults apply when empty)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to record the run in")
	fs.StringVar(&o.plot, "plot", "", "Write a queue depth plot to this path (.png, .svg, .pdf)")
	fs.StringVar(&o.latencyPlot, "latency-plot", "", "Write a trigger latency plot to this path")
	fs.StringVar(&o.chart, "chart", "", "Write an HTML chart to this path")
	fs.StringVar(&o.listen, "listen", "", "Serve the chart, run API and debug routes on this address after the run")
	fs.BoolVar(&o.verbose, "verbose", false, "Log every decoded frame")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.showVersion {
		return o, nil
	}
	if o.digital == "" || o.can == "" {
		fs.Usage()
		return nil, errors.New("-digital and -can are required")
	}
	return o, nil
}

func loadConfig(path string) (*config.AnalysisConfig, error) {
	if path == "" {
		return config.EmptyAnalysisConfig(), nil
	}
	return config.LoadAnalysisConfig(path)
}

func analyse(o *options) (*analysis.Result, error) {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	digital, err := os.Open(o.digital)
	if err != nil {
		return nil, fmt.Errorf("failed to open digital export: %w", err)
	}
	defer digital.Close()

	canExport, err := os.Open(o.can)
	if err != nil {
		return nil, fmt.Errorf("failed to open CAN export: %w", err)
	}
	defer canExport.Close()

	return analysis.Run(digital, canExport, analysis.OptionsFromConfig(cfg))
}

func writeReports(o *options, res *analysis.Result) error {
	for _, path := range []string{o.plot, o.latencyPlot, o.chart} {
		if path == "" {
			continue
		}
		if err := security.ValidateExportPath(path); err != nil {
			return fmt.Errorf("invalid report path: %w", err)
		}
	}
	if o.plot != "" {
		if err := report.PlotDelay(res, o.plot); err != nil {
			return err
		}
		monitoring.Logf("wrote delay plot to %s", o.plot)
	}
	if o.latencyPlot != "" {
		if err := report.PlotLatency(res, o.latencyPlot); err != nil {
			return err
		}
		monitoring.Logf("wrote latency plot to %s", o.latencyPlot)
	}
	if o.chart != "" {
		f, err := os.Create(o.chart)
		if err != nil {
			return fmt.Errorf("failed to create chart file: %w", err)
		}
		if err := report.RenderChart(res, f); err != nil {
			f.Close()
			return fmt.Errorf("failed to render chart: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		monitoring.Logf("wrote chart to %s", o.chart)
	}
	return nil
}

func newMux(res *analysis.Result, database *db.DB) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.Handle("/chart", report.ChartHandler(res))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := res.WriteStatus(w); err != nil {
			monitoring.Logf("failed to write status: %v", err)
		}
	})
	if database != nil {
		if err := database.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
		api.NewServer(database).Register(mux)
	}
	return api.LoggingMiddleware(mux), nil
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()
	monitoring.Logf("serving chart on http://%s/chart", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "migrate" {
		dbPath := defaultDBPath
		rest := args[1:]
		if len(rest) >= 2 && rest[0] == "-db" {
			dbPath, rest = rest[1], rest[2:]
		}
		return db.RunMigrateCommand(rest, dbPath, stdout)
	}

	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintf(stdout, "can-delay %s\n", version.String())
		return nil
	}
	monitoring.SetVerbose(o.verbose)

	res, err := analyse(o)
	if err != nil {
		return err
	}
	if err := res.WriteStatus(stdout); err != nil {
		return err
	}
	if err := writeReports(o, res); err != nil {
		return err
	}

	var database *db.DB
	if o.dbPath != "" {
		database, err = db.NewDB(o.dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		if err := analysis.Save(database, res, o.digital, o.can); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		monitoring.Logf("recorded run %s in %s", res.RunID, o.dbPath)
	}

	if o.listen == "" {
		return nil
	}
	mux, err := newMux(res, database)
	if err != nil {
		return err
	}
	return serve(ctx, o.listen, mux)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("can-delay: %v", err)
	}
}
