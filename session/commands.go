package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"prosekit/common"
	"prosekit/convert"
	"prosekit/schema"
	"prosekit/state"
	"prosekit/upload"
)

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

type typeSummary struct {
	Name    string   `yaml:"name"`
	Group   string   `yaml:"group,omitempty"`
	Content string   `yaml:"content,omitempty"`
	Attrs   []string `yaml:"attrs,omitempty,flow"`
}

type schemaSummary struct {
	Nodes        []typeSummary `yaml:"nodes"`
	Marks        []typeSummary `yaml:"marks"`
	Classes      *yaml.Node    `yaml:"classes,omitempty"`
	TableEditing bool          `yaml:"table_editing"`
}

func summarize(names []string, lookup func(string) (*schema.TypeDefinition, bool)) []typeSummary {
	res := make([]typeSummary, 0, len(names))
	for _, name := range names {
		def, ok := lookup(name)
		if !ok {
			continue
		}
		attrs := make([]string, 0, len(def.Attrs))
		for a := range def.Attrs {
			attrs = append(attrs, a)
		}
		sort.Sort(natural.StringSlice(attrs))
		res = append(res, typeSummary{Name: name, Group: def.Group, Content: def.Content, Attrs: attrs})
	}
	return res
}

// Schema prints summary of schema assembled from configuration.
func Schema(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	s, err := env.Schema()
	if err != nil {
		return err
	}

	sum := schemaSummary{
		Nodes:        summarize(s.NodeNames(), s.Node),
		Marks:        summarize(s.MarkNames(), s.Mark),
		TableEditing: s.Capabilities().TableEditing,
	}
	if names := s.Classes().Names(); len(names) > 0 {
		sort.Sort(natural.StringSlice(names))
		sum.Classes = &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range names {
			sum.Classes.Content = append(sum.Classes.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: name},
				&yaml.Node{Kind: yaml.ScalarNode, Value: s.Classes().Class(name)})
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&sum); err != nil {
		return fmt.Errorf("unable to encode schema summary: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = output(cmd).Write(buf.Bytes())
	return err
}

// filePicker returns picker handing out file at path once.
func filePicker(path string, log *zap.Logger) upload.Picker {
	if len(path) == 0 {
		return nil
	}
	return func() (upload.File, bool) {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Unable to read picked file", zap.String("file", path), zap.Error(err))
			return upload.File{}, false
		}
		return upload.File{Name: filepath.Base(path), Body: bytes.NewReader(data)}, true
	}
}

// Toolbar shows toolbar selection at position brings up. Text is typed,
// keys are pressed, menubar and toolbar entries are clicked in this order.
// It prints toolbar or menubar markup or, with --result, the resulting
// document.
func Toolbar(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("toolbar")

	name := cmd.Args().Get(0)
	if len(name) == 0 {
		return fmt.Errorf("no input document has been specified")
	}
	format, ok := common.FormatFromPath(name)
	if !ok {
		format = common.FormatJSON
	}
	s, err := env.Schema()
	if err != nil {
		return err
	}
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("unable to open input: %w", err)
	}
	doc, err := convert.Read(f, format, s, log)
	f.Close()
	if err != nil {
		return fmt.Errorf("unable to read document (%s): %w", name, err)
	}

	ses, err := New(ctx, env, doc, filePicker(cmd.String("file"), log))
	if err != nil {
		return err
	}
	defer ses.Close()

	if cmd.IsSet("pos") {
		if err := ses.Select(int(cmd.Int("pos")), cmd.Bool("node")); err != nil {
			return err
		}
	}
	if text := cmd.String("type"); len(text) > 0 {
		if err := ses.Type(text); err != nil {
			return err
		}
	}
	for _, key := range cmd.StringSlice("key") {
		if err := ses.Key(key); err != nil {
			return err
		}
	}
	for _, index := range cmd.IntSlice("menu") {
		if err := ses.MenuClick(int(index)); err != nil {
			return err
		}
	}
	for _, index := range cmd.IntSlice("click") {
		if err := ses.Click(int(index)); err != nil {
			return err
		}
	}

	w := output(cmd)
	if cmd.Bool("result") {
		opts := convert.Options{Indent: env.Cfg.Output.Indent}
		return convert.Write(w, ses.Doc(), common.FormatJSON, s, opts, log)
	}

	in := ses.Toolbar()
	if cmd.Bool("menubar") {
		in = ses.Menubar()
	}
	if in == nil {
		log.Info("No toolbar is shown for selection")
		return nil
	}
	if err := html.Render(w, in.Container); err != nil {
		return fmt.Errorf("unable to render toolbar: %w", err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// Upload stores image files with configured transport and prints image
// node attributes for each of them.
func Upload(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("upload")

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("no files to upload have been specified")
	}
	transport := env.Uploads()
	w := output(cmd)
	for _, name := range cmd.Args().Slice() {
		if err := ctx.Err(); err != nil {
			return err
		}
		asset, er := uploadFile(ctx, transport, name)
		if er != nil {
			log.Error("Unable to upload file", zap.String("file", name), zap.Error(er))
			err = multierr.Append(err, er)
			continue
		}
		data, er := json.Marshal(asset.Attrs())
		if er != nil {
			return er
		}
		if _, er := fmt.Fprintf(w, "%s\n", data); er != nil {
			return er
		}
	}
	return err
}

func uploadFile(ctx context.Context, transport *upload.LocalTransport, name string) (upload.Asset, error) {
	f, err := os.Open(name)
	if err != nil {
		return upload.Asset{}, err
	}
	defer f.Close()
	return transport.Upload(ctx, upload.File{Name: filepath.Base(name), Body: f})
}
