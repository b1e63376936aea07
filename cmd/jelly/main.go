// Command jelly is a terminal client for a short-form video feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/tesso57/jelly/internal/infrastructure/config"
	"github.com/tesso57/jelly/internal/infrastructure/logging"
)

// CLI is the command line surface.
type CLI struct {
	Config   string `help:"Config file path (default ~/.config/jelly/config.yaml)." type:"path"`
	LogLevel string `help:"Override the configured log level." name:"log-level"`

	TUI    TUICmd    `cmd:"" default:"1" help:"Run the terminal UI."`
	Scrape ScrapeCmd `cmd:"" help:"Fetch the feed once and print each video URL."`
	Record RecordCmd `cmd:"" help:"Record one clip without the UI."`
	Roll   RollCmd   `cmd:"" help:"Print the camera roll as JSON."`
}

// App is bound into every command's Run method.
type App struct {
	Ctx    context.Context
	Config *config.Store
	Out    io.Writer
	ErrOut io.Writer
	Logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "jelly: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("jelly"),
		kong.Description("Watch the video feed, record clips and browse the camera roll."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	store, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cli.LogLevel != "" {
		store.Settings.LogLevel = cli.LogLevel
	}

	app := &App{Ctx: ctx, Config: store, Out: stdout, ErrOut: stderr}
	return kctx.Run(app)
}

// configureLogging sends logs to w, or to the configured log file when w is nil.
// The returned closer must be called once logging is no longer needed.
func (a *App) configureLogging(w io.Writer) (func(), error) {
	closer := func() {}
	if w == nil {
		f, err := logging.OpenFile(a.Config.Settings.LogFile)
		if err != nil {
			return nil, err
		}
		w = f
		closer = func() { _ = f.Close() }
	}
	a.Logger = logging.Configure(logging.Config{
		Level:  a.Config.Settings.LogLevel,
		Output: w,
	})
	return closer, nil
}

var errInterrupted = errors.New("interrupted")
