package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"prosekit/common"
	"prosekit/document"
	"prosekit/schema"
	"prosekit/state"
)

// stdio is the name standing for standard input or output.
const stdio = "-"

// source reads document named by the first argument, standard input when
// absent. Format is detected by extension, fallback is used for standard
// input and unknown extensions.
func source(ctx context.Context, cmd *cli.Command, fallback common.Format, log *zap.Logger) (*document.Node, *schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	env := state.EnvFromContext(ctx)
	s, err := env.Schema()
	if err != nil {
		return nil, nil, err
	}

	name := cmd.Args().Get(0)
	format := fallback
	var r io.Reader = os.Stdin
	if cmd.Root().Reader != nil {
		r = cmd.Root().Reader
	}
	if name != "" && name != stdio {
		if f, ok := common.FormatFromPath(name); ok {
			format = f
		}
		file, err := os.Open(name)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open input: %w", err)
		}
		defer file.Close()
		r = file
		env.Rpt.Store("input/"+name, name)
	} else {
		name = "STDIN"
	}

	log.Debug("Reading document", zap.String("file", name), zap.Stringer("format", format))
	doc, err := Read(r, format, s, log)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read document (%s): %w", name, err)
	}
	return doc, s, nil
}

// destination opens file named by the second argument, standard output when
// absent. Returned function must be called when output is complete.
func destination(ctx context.Context, cmd *cli.Command, log *zap.Logger) (io.Writer, func() error, error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	name := cmd.Args().Get(1)
	if name == "" || name == stdio {
		var w io.Writer = os.Stdout
		if cmd.Root().Writer != nil {
			w = cmd.Root().Writer
		}
		return w, func() error { return nil }, nil
	}
	out, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create destination file '%s': %w", name, err)
	}
	return out, func() error {
		if err := out.Close(); err != nil {
			return err
		}
		env.Rpt.Store("output/"+name, name)
		return nil
	}, nil
}

func emit(ctx context.Context, cmd *cli.Command, doc *document.Node, s *schema.Schema, format common.Format, opts Options, log *zap.Logger) error {
	w, done, err := destination(ctx, cmd, log)
	if err != nil {
		return err
	}
	if err := Write(w, doc, format, s, opts, log); err != nil {
		return errors.Join(err, done())
	}
	return done()
}

func options(ctx context.Context, cmd *cli.Command) Options {
	cfg := state.EnvFromContext(ctx).Cfg.Output
	opts := Options{Sanitize: cfg.Sanitize, Indent: cfg.Indent}
	if cmd.IsSet("sanitize") {
		opts.Sanitize = cmd.Bool("sanitize")
	}
	if cmd.IsSet("indent") {
		opts.Indent = int(cmd.Int("indent"))
	}
	return opts
}

// Validate checks document against schema.
func Validate(ctx context.Context, cmd *cli.Command) error {
	log := state.EnvFromContext(ctx).Log.Named("validate")

	doc, s, err := source(ctx, cmd, common.FormatJSON, log)
	if err != nil {
		return err
	}
	if err := document.Validate(doc, s); err != nil {
		return fmt.Errorf("document is not valid: %w", err)
	}
	if err := document.CheckModel(doc, s); err != nil {
		return fmt.Errorf("document is rejected by prosemirror model: %w", err)
	}
	log.Info("Document is valid", zap.Int("size", doc.ContentSize()))
	return nil
}

// HTML renders document as HTML.
func HTML(ctx context.Context, cmd *cli.Command) error {
	log := state.EnvFromContext(ctx).Log.Named("html")

	doc, s, err := source(ctx, cmd, common.FormatJSON, log)
	if err != nil {
		return err
	}
	return emit(ctx, cmd, doc, s, common.FormatHTML, options(ctx, cmd), log)
}

// Parse reads HTML or Markdown and outputs document.
func Parse(ctx context.Context, cmd *cli.Command) error {
	log := state.EnvFromContext(ctx).Log.Named("parse")

	fallback := common.FormatHTML
	if cmd.Bool("markdown") {
		fallback = common.FormatMarkdown
	}
	doc, s, err := source(ctx, cmd, fallback, log)
	if err != nil {
		return err
	}
	return emit(ctx, cmd, doc, s, common.FormatJSON, options(ctx, cmd), log)
}

// Tree prints document structure with node positions.
func Tree(ctx context.Context, cmd *cli.Command) error {
	log := state.EnvFromContext(ctx).Log.Named("tree")

	doc, s, err := source(ctx, cmd, common.FormatJSON, log)
	if err != nil {
		return err
	}
	if err := document.Validate(doc, s); err != nil {
		log.Warn("Document is not valid", zap.Error(err))
	}
	w, done, err := destination(ctx, cmd, log)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, Dump(doc)); err != nil {
		return errors.Join(err, done())
	}
	return done()
}
