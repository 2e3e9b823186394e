package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"prosekit/common"
	"prosekit/config"
	"prosekit/convert"
	"prosekit/misc"
	"prosekit/session"
	"prosekit/state"
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
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := env.Cfg.Logging.PanicLogName()
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Errors from subcommands are regular errors, cli.Exit() is not used.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

const sourceHelp = `
SOURCE:
    document to read, format is detected by extension (%s),
    if absent or "-" - STDIN

DESTINATION:
    file name to write result to, if absent or "-" - STDOUT
`

func main() {

	// allow graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	sanitizeFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "sanitize", Aliases: []string{"s"}, Usage: "run produced HTML through sanitize policy derived from schema"}
	}
	indentFlag := func() cli.Flag {
		return &cli.IntFlag{Name: "indent", Usage: "pretty print output using `N` spaces, whitespace between inline elements may change"}
	}
	docHelp := fmt.Sprintf(sourceHelp, strings.Join(common.FormatNames(), ", "))

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "schema driven rich text documents and editor toolbars",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "schema",
				Usage:        "Prints summary of schema assembled from configuration (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       session.Schema,
			},
			{
				Name:               "validate",
				Usage:              "Checks document against schema",
				OnUsageError:       usageErrorHandler,
				Action:             convert.Validate,
				ArgsUsage:          "[SOURCE]",
				CustomHelpTemplate: cli.CommandHelpTemplate + docHelp,
			},
			{
				Name:               "html",
				Usage:              "Renders document as HTML",
				OnUsageError:       usageErrorHandler,
				Action:             convert.HTML,
				Flags:              []cli.Flag{sanitizeFlag(), indentFlag()},
				ArgsUsage:          "[SOURCE] [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + docHelp,
			},
			{
				Name:         "parse",
				Usage:        "Reads HTML or Markdown into document (JSON)",
				OnUsageError: usageErrorHandler,
				Action:       convert.Parse,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "markdown", Aliases: []string{"md"}, Usage: "treat STDIN and files with unknown extensions as Markdown instead of HTML"},
					indentFlag(),
				},
				ArgsUsage:          "[SOURCE] [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + docHelp,
			},
			{
				Name:               "tree",
				Usage:              "Prints document structure with node positions",
				OnUsageError:       usageErrorHandler,
				Action:             convert.Tree,
				ArgsUsage:          "[SOURCE] [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + docHelp,
			},
			{
				Name:         "convert",
				Usage:        "Converts document(s) to specified format",
				OnUsageError: usageErrorHandler,
				Action:       convert.Run,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Value: common.FormatHTML.String(),
						Usage: "conversion output `TYPE` (supported types: " + strings.Join(common.WritableFormatNames(), ", ") + ")"},
					&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
					sanitizeFlag(),
					&cli.StringFlag{Name: "force-zip-cp",
						Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to document(s) to process, following formats are supported:
        path to a file: "[path_to_file]file.json"
        path to a directory: "[path_to_directory]directory" - recursively process all documents under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular document: "[path_to_archive]archive.zip[path_in_archive]/file.md"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all documents under archive path

	Documents are recognized by extension (%s). Processing of archives
	inside archives is not supported.

DESTINATION:
    always a path, output file name(s) and extension will be derived from other parameters
    if absent - current working directory
`, cli.CommandHelpTemplate, strings.Join(common.FormatNames(), ", ")),
			},
			{
				Name:         "toolbar",
				Usage:        "Shows toolbar editor displays for selection, types text, presses keys and runs menu entries",
				OnUsageError: usageErrorHandler,
				Action:       session.Toolbar,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "pos", Aliases: []string{"p"}, Usage: "place selection at document `POSITION`"},
					&cli.BoolFlag{Name: "node", Aliases: []string{"n"}, Usage: "select node starting at position instead of placing cursor"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "type `TEXT` at selection, input rules apply"},
					&cli.StringSliceFlag{Name: "key", Aliases: []string{"k"}, Usage: "press `KEY` (for example Mod-b or Shift-Ctrl-1), may be repeated"},
					&cli.IntSliceFlag{Name: "menu", Usage: "click menubar entry `INDEX` (data-action attribute), may be repeated"},
					&cli.IntSliceFlag{Name: "click", Usage: "click toolbar entry `INDEX` (data-action attribute), may be repeated"},
					&cli.StringFlag{Name: "file", Usage: "`FILE` to hand out when image insertion or replacement asks for one"},
					&cli.BoolFlag{Name: "menubar", Aliases: []string{"m"}, Usage: "print menubar markup instead of toolbar markup"},
					&cli.BoolFlag{Name: "result", Usage: "print resulting document (JSON) instead of toolbar markup"},
				},
				ArgsUsage: "SOURCE",
			},
			{
				Name:         "upload",
				Usage:        "Stores image file(s) in configured upload directory",
				OnUsageError: usageErrorHandler,
				Action:       session.Upload,
				ArgsUsage:    "FILE...",
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

Produces file with actual "active" configuration values wich is composition of
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
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
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

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
