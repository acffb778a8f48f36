package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/OneeMe/obsidian-social-share/config"
	"github.com/OneeMe/obsidian-social-share/renderer"
	"github.com/OneeMe/obsidian-social-share/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if env.Log, err = env.Cfg.Logging.Prepare(cmd.Bool("verbose")); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", version()), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.RestoreStdLog()
	return nil
}

// Errors from subcommands are regular errors, they are logged here once and
// reported to stderr directly only when log is not available.
var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	if log := state.EnvFromContext(ctx).Log; log != nil {
		log.Warn("Unknown command, nothing to do", zap.String("command", name))
	}
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

func main() {

	// allow graceful shutdown on interrupt, cards are produced one by one and
	// run stops between them
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            config.AppName,
		Usage:           "turns a note into a series of shareable image cards",
		Version:         version() + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "output debug messages to console"},
		},
		Commands: []*cli.Command{
			{
				Name:         "share",
				Usage:        "Renders document as a sequence of card images",
				OnUsageError: usageErrorHandler,
				Action:       shareDocument,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "document `NAME` used for output files (default: file name without extension)"},
					&cli.StringFlag{Name: "label", Usage: "`LABEL` placed between document name and page number in output file names"},
					&cli.IntFlag{Name: "lines", Aliases: []string{"l"}, Usage: "number of non-blank lines per card"},
					&cli.StringFlag{Name: "layout", Usage: "card layout `FILE` (.card)"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"},
						Usage: "image `TYPE` (supported types: " + strings.Join(renderer.FormatNames(), ", ") + ")"},
					&cli.StringFlag{Name: "backend", Usage: "drawing `BACKEND` (supported: " + strings.Join(backendNames(), ", ") + ")"},
					&cli.StringFlag{Name: "policy", Usage: "what to do when card could not be drawn: skip or abort"},
					&cli.StringFlag{Name: "charset", Usage: "decode documents which are not UTF-8 from `ENCODING` (see IANA.org for character set names)"},
					&cli.BoolFlag{Name: "sheet", Usage: "also produce contact sheet with all cards"},
					&cli.StringFlag{Name: "debug-layout", Usage: "write planned card layout as JSON to `FILE`"},
				},
				ArgsUsage: "DOCUMENT [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
DOCUMENT:
    path to text or markdown note, leading front matter block is removed and
    its fields are available to name template as ${meta.field}

DESTINATION:
    directory for generated cards, if absent - current working directory
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "sheet",
				Usage:        "Builds contact sheet from card images in directory",
				OnUsageError: usageErrorHandler,
				Action:       buildSheet,
				ArgsUsage:    "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    directory with card images, files are ordered naturally (page 10 after page 9)

DESTINATION:
    image file to write, if absent - "sheet.png" in SOURCE
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "fonts",
				Usage:        "Lists embedded fonts which can be used in layout files",
				OnUsageError: usageErrorHandler,
				Action:       listFonts,
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
