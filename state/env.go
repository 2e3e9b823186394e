// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"prosekit/config"
	"prosekit/i18n"
	"prosekit/schema"
	"prosekit/upload"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// Registry is where editor settings look node and mark types up.
	Registry *schema.Registry

	// used by convert subcommand
	NoDirs    bool
	Overwrite bool
	CodePage  encoding.Encoding

	schema        *schema.Schema
	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Schema assembles schema from editor settings on first use.
func (e *LocalEnv) Schema() (*schema.Schema, error) {
	if e.schema != nil {
		return e.schema, nil
	}
	if e.Cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	s, err := schema.NewBuilder(e.Registry, e.Log).Build(e.Cfg.Editor.SchemaConfig(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to assemble schema: %w", err)
	}
	e.schema = s
	return s, nil
}

// Translator returns translator for configured editor language.
func (e *LocalEnv) Translator() *i18n.Translator {
	lang := "en"
	if e.Cfg != nil {
		lang = e.Cfg.Editor.Language
	}
	return i18n.New(lang, e.Log)
}

// Uploads returns local transport for configured upload directory.
func (e *LocalEnv) Uploads() *upload.LocalTransport {
	t := upload.NewLocalTransport(e.Cfg.Upload.Dir, e.Cfg.Upload.BaseURL, e.Log)
	if e.Cfg.Upload.MaxSize > 0 {
		t.MaxSize = e.Cfg.Upload.MaxSize
	}
	return t
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
