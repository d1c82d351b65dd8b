package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"examradar/internal/config"
	"examradar/internal/domain"
	"examradar/internal/logging"
	"examradar/internal/service"
	"examradar/internal/tui"
	"examradar/internal/watcher"
)

const usage = `Usage: examradar [-config file] [-json] [-watch dir] [file ...|-]

Analyzes past exam papers and prints the recurring questions, a ranked list
and a revision plan. "-" reads raw text from stdin.
`

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		asJSON  bool
		watch   string
		logFile string
		debug   bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/examradar/config.yaml if not provided)")
	flag.BoolVar(&asJSON, "json", false, "Print the report as JSON instead of opening the viewer")
	flag.StringVar(&watch, "watch", "", "Directory to analyze and re-analyze whenever its files change")
	flag.StringVar(&logFile, "log-file", "", "Write logs to this file while the viewer is open")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 && watch == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	logOut, closeLog, err := logOutput(asJSON, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, logOut); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log config: %v\n", err)
		os.Exit(1)
	}

	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise capabilities")
	}
	analyzer := service.NewAnalyzer(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyze := func() (*domain.Report, error) {
		if watch != "" {
			return analyzer.AnalyzeFiles(ctx, dirFiles(watch, analyzer.Extractors().Supports))
		}
		return analyzeInputs(ctx, analyzer, inputs, os.Stdin)
	}

	report, err := analyze()
	if err != nil && !(watch != "" && errors.Is(err, service.ErrNoFiles)) {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
	if report == nil {
		report = domain.EmptyReport()
	}

	source := describe(inputs, watch)
	if asJSON {
		if err := writeReport(os.Stdout, report, watch == ""); err != nil {
			log.Fatal().Err(err).Msg("Failed to write report")
		}
		if watch != "" {
			runWatch(ctx, watch, analyzer, func(r *domain.Report, err error) {
				if err != nil {
					log.Error().Err(err).Msg("Re-analysis failed")
					return
				}
				if err := writeReport(os.Stdout, r, false); err != nil {
					log.Error().Err(err).Msg("Failed to write report")
				}
			})
		}
		return
	}

	p := tea.NewProgram(tui.New(report, source), tea.WithAltScreen(), tea.WithContext(ctx))
	if watch != "" {
		go runWatch(ctx, watch, analyzer, func(r *domain.Report, err error) {
			p.Send(tui.ReportMsg{Report: r, Err: err})
		})
	}
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Fatal().Err(err).Msg("Viewer failed")
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

// logOutput keeps the viewer's screen clean: logs go to stderr only in JSON
// mode, to logFile when given, and are dropped otherwise.
func logOutput(asJSON bool, logFile string) (io.Writer, func(), error) {
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	case asJSON:
		return os.Stderr, func() {}, nil
	}
	return io.Discard, func() {}, nil
}

// analyzeInputs analyzes stdin when the only input is "-", and the named
// files (glob patterns allowed) otherwise.
func analyzeInputs(ctx context.Context, a *service.Analyzer, inputs []string, stdin io.Reader) (*domain.Report, error) {
	if len(inputs) == 1 && inputs[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return a.AnalyzeText(ctx, string(data))
	}
	return a.AnalyzeFiles(ctx, expandInputs(inputs))
}

func expandInputs(inputs []string) []service.SourceFile {
	var files []service.SourceFile
	for _, in := range inputs {
		matches, _ := filepath.Glob(in)
		if matches == nil {
			matches = []string{in}
		}
		for _, m := range matches {
			files = append(files, service.SourceFile{Name: filepath.Base(m), Path: m})
		}
	}
	return files
}

// dirFiles lists the regular files in dir accepted by match, sorted by name.
func dirFiles(dir string, match func(string) bool) []service.SourceFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Cannot list directory")
		return nil
	}
	var files []service.SourceFile
	for _, e := range entries {
		if !e.Type().IsRegular() || !match(e.Name()) {
			continue
		}
		files = append(files, service.SourceFile{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// runWatch re-analyzes dir on every change until ctx is done.
func runWatch(ctx context.Context, dir string, a *service.Analyzer, deliver func(*domain.Report, error)) {
	w, err := watcher.New(dir, a.Extractors().Supports, func() {
		r, err := a.AnalyzeFiles(ctx, dirFiles(dir, a.Extractors().Supports))
		if errors.Is(err, service.ErrNoFiles) {
			r, err = domain.EmptyReport(), nil
		}
		deliver(r, err)
	})
	if err != nil {
		deliver(nil, err)
		return
	}
	if err := w.Start(); err != nil {
		deliver(nil, err)
		return
	}
	log.Info().Str("dir", dir).Msg("Watching for changes")
	<-ctx.Done()
	_ = w.Stop()
}

func writeReport(w io.Writer, r *domain.Report, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func describe(inputs []string, watch string) string {
	switch {
	case watch != "":
		return "watching " + watch
	case len(inputs) == 1 && inputs[0] == "-":
		return "stdin"
	case len(inputs) == 1:
		return inputs[0]
	}
	return fmt.Sprintf("%d inputs", len(inputs))
}
