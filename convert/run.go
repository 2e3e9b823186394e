package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/h2non/filetype"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"prosekit/archive"
	"prosekit/common"
	"prosekit/state"
)

// Run converts document(s) to requested format. Source may be a file, a
// directory or a zip archive with optional path inside it.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format, err := common.ParseFormat(cmd.String("to"))
	if err == nil && !format.Writable() {
		err = fmt.Errorf("%s could not be produced", format)
	}
	if err != nil {
		log.Warn("Unsupported output format requested, switching to html", zap.Error(err))
		format = common.FormatHTML
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	if cmd.IsSet("sanitize") {
		env.Cfg.Output.Sanitize = cmd.Bool("sanitize")
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	if _, err := env.Schema(); err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, format, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, format common.Format, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, format, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, format, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		in, ok := common.FormatFromPath(head)
		if !ok || len(tail) != 0 {
			return fmt.Errorf("input was not recognized as document (%s)", head)
		}
		file, err := os.Open(head)
		if err != nil {
			return err
		}
		defer file.Close()
		return processDocument(ctx, file, filepath.Base(head), in, dst, format, log)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// entry is a document found in directory or archive.
type entry struct {
	// rel is path relative to the walked root, output keeps it.
	rel    string
	format common.Format
	open   func() (io.ReadCloser, error)
}

// convertEntry processes single found document, failures are logged and do
// not stop the walk.
func convertEntry(ctx context.Context, e entry, dst string, format common.Format, log *zap.Logger) {
	r, err := e.open()
	if err == nil {
		err = processDocument(ctx, r, e.rel, e.format, dst, format, log)
		r.Close()
	}
	if err != nil {
		log.Error("Unable to process document", zap.String("file", e.rel), zap.Error(err))
	}
}

// processDir walks directory tree finding documents and archives and
// processes them.
func processDir(ctx context.Context, dir, dst string, format common.Format, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, format, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		in, ok := common.FormatFromPath(path)
		if !ok {
			log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			return nil
		}
		count++
		convertEntry(ctx, entry{
			rel:    rel,
			format: in,
			open:   func() (io.ReadCloser, error) { return os.Open(path) },
		}, dst, format, log)
		return nil
	})
}

// processArchive walks all files inside archive, finds documents under
// "pathIn" and processes them. Output goes to "pathOut" under destination.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, format common.Format, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	cp := state.EnvFromContext(ctx).CodePage

	return archive.Walk(path, pathIn, func(archive string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.Name
		if cp != nil && f.NonUTF8 {
			// file name encoding is not defined for old archives
			if n, err := cp.NewDecoder().String(name); err == nil {
				name = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", name), zap.Error(err))
			}
		}

		in, ok := common.FormatFromPath(name)
		if !ok {
			log.Debug("Skipping file, not recognized as document", zap.String("archive", archive), zap.String("file", name))
			return nil
		}
		count++
		convertEntry(ctx, entry{
			rel:    filepath.Join(pathOut, filepath.FromSlash(name)),
			format: in,
			open:   f.Open,
		}, dst, format, log.With(zap.String("archive", archive)))
		return nil
	})
}

// processDocument converts single document. "src" is part of the source
// path (always including file name) relative to the original path. When
// actual file was specified it will be just base file name without a path.
// When looking inside archive or directory it will be relative path inside
// archive or directory. "dst" is the destination directory.
func processDocument(ctx context.Context, r io.Reader, src string, in common.Format, dst string, format common.Format, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Conversion starting", zap.String("from", src), zap.Stringer("input", in))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	s, err := env.Schema()
	if err != nil {
		return err
	}
	doc, err := Read(r, in, s, log)
	if err != nil {
		return fmt.Errorf("unable to read document (%s): %w", src, err)
	}

	outputName = buildOutputPath(src, dst, format, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	opts := Options{Sanitize: env.Cfg.Output.Sanitize, Indent: env.Cfg.Output.Indent}
	if err := Write(out, doc, format, s, opts, log); err != nil {
		out.Close()
		os.Remove(outputName)
		return fmt.Errorf("unable to write document (%s): %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Store conversion result for debugging
	if env.Rpt != nil {
		name := filepath.Base(outputName)
		if rel, err := filepath.Rel(dst, outputName); err == nil {
			name = filepath.ToSlash(rel)
		}
		env.Rpt.Store("result/"+name, outputName)
	}
	return nil
}

// isArchiveFile checks file signature for zip archive.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}
