// Command persistent-clutter identifies persistent ground clutter in a
// stream of radar volumes and writes a clutter reflectivity product.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/clutter"
	"github.com/banshee-data/persistent-clutter/internal/config"
	"github.com/banshee-data/persistent-clutter/internal/db"
	"github.com/banshee-data/persistent-clutter/internal/diag"
	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/security"
	"github.com/banshee-data/persistent-clutter/internal/timeutil"
	"github.com/banshee-data/persistent-clutter/internal/trigger"
	"github.com/banshee-data/persistent-clutter/internal/version"
)

type options struct {
	configPath  string
	mode        string
	start       string
	end         string
	input       string
	output      string
	threads     int
	listen      string
	debug       bool
	showVersion bool
	files       []string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("persistent-clutter", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML config file")
	fs.StringVar(&opts.mode, "mode", "", "Trigger mode: archive, filelist or realtime")
	fs.StringVar(&opts.start, "start", "", "Archive start time (RFC3339)")
	fs.StringVar(&opts.end, "end", "", "Archive end time (RFC3339)")
	fs.StringVar(&opts.input, "input", "", "Input directory for archive and realtime modes")
	fs.StringVar(&opts.output, "output", "", "Output directory for the clutter product")
	fs.IntVar(&opts.threads, "threads", 0, "Number of ray workers (0 uses the config value)")
	fs.StringVar(&opts.listen, "listen", "", "Serve debug routes on this address while running (needs db_path)")
	fs.BoolVar(&opts.debug, "debug", false, "Enable per-ray debug logging")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.files = fs.Args()
	return opts, nil
}

// loadConfig reads the config file, if any, and applies the command line
// overrides on top of it.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.EmptyConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.mode != "" {
		cfg.Mode = &opts.mode
	}
	if opts.start != "" {
		cfg.StartTime = &opts.start
	}
	if opts.end != "" {
		cfg.EndTime = &opts.end
	}
	if opts.input != "" {
		cfg.InputDir = &opts.input
	}
	if opts.output != "" {
		cfg.OutputDir = &opts.output
	}
	if opts.threads > 0 {
		cfg.NumThreads = &opts.threads
	}
	if opts.debug {
		cfg.Debug = &opts.debug
	}
	// positional files select filelist mode unless a mode was given
	if len(opts.files) > 0 {
		cfg.FileList = opts.files
		if opts.mode == "" && cfg.Mode == nil {
			m := config.ModeFilelist
			cfg.Mode = &m
		}
	}
	if err := cfg.ValidateForRun(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Println("persistent-clutter", version.String())
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	monitoring.SetDebug(cfg.GetDebug())
	log.Printf("persistent-clutter %s, mode %s", version.String(), cfg.GetMode())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	res, err := run(ctx, cfg, opts.listen)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	if !res.Converged {
		log.Printf("run %s: no convergence after %d volumes, no clutter product written", res.RunID, res.VolumesPassOne)
		return
	}
	log.Printf("run %s: converged at %s, %d of %d gates are clutter, wrote %s",
		res.RunID, res.FinalTime.Format(time.RFC3339), res.ClutterGates, res.Gates, res.OutputPath)
}

func run(ctx context.Context, cfg *config.Config, listen string) (*clutter.Result, error) {
	src, err := trigger.New(cfg, cfg.FileList, timeutil.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("create volume source: %w", err)
	}
	defer src.Close()

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	deps := clutter.Deps{
		Source:        src,
		OutputDir:     cfg.GetOutputDir(),
		DiagnosticDir: cfg.GetDiagnosticDir(),
		ConfigJSON:    string(configJSON),
	}

	if p := cfg.GetThresholdLogPath(); p != "" {
		tl, err := diag.NewThresholdLog(p)
		if err != nil {
			return nil, err
		}
		defer closeLog(p, tl.Close)
		deps.Observers = append(deps.Observers, tl)
	}
	if p := cfg.GetHistogramLogPath(); p != "" {
		hl, err := diag.NewHistogramLog(p)
		if err != nil {
			return nil, err
		}
		defer closeLog(p, hl.Close)
		deps.Observers = append(deps.Observers, hl)
	}

	if p := cfg.GetDBPath(); p != "" {
		store, err := db.NewDB(p)
		if err != nil {
			return nil, fmt.Errorf("open run database: %w", err)
		}
		defer store.Close()
		deps.Recorder = db.NewRecorder(store, timeutil.RealClock{})
		if listen != "" {
			stopServer, err := serveDebug(store, listen)
			if err != nil {
				return nil, err
			}
			defer stopServer()
		}
	} else if listen != "" {
		log.Printf("-listen %s ignored: no db_path configured", listen)
	}

	res, err := clutter.Run(ctx, clutter.ParamsFromConfig(cfg), deps)
	if err != nil {
		return res, err
	}
	if dir := cfg.GetPlotDir(); dir != "" && len(res.History) > 0 {
		if err := writePlots(dir, res); err != nil {
			log.Printf("failed to write convergence plots: %v", err)
		}
	}
	return res, nil
}

func closeLog(path string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Printf("failed to close %s: %v", path, err)
	}
}

// writePlots saves the PNG and HTML convergence charts of a run to dir.
func writePlots(dir string, res *clutter.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	base := "convergence-" + security.SanitizeFilename(res.RunID)
	if err := diag.PlotConvergence(res.History, filepath.Join(dir, base+".png")); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, base+".html"))
	if err != nil {
		return err
	}
	in := diag.ChartInput{
		Subtitle: fmt.Sprintf("run %s, converged %t", res.RunID, res.Converged),
		Stats:    res.History,
	}
	if err := diag.RenderConvergenceChart(in, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// serveDebug starts the admin HTTP server and returns a function that shuts
// it down.
func serveDebug(store *db.DB, addr string) (func(), error) {
	mux := http.NewServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("debug server stopped: %v", err)
		}
	}()
	log.Printf("debug routes on http://%s/debug/", addr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("debug server shutdown error: %v", err)
		}
	}, nil
}
