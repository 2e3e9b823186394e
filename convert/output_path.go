package convert

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"prosekit/common"
	"prosekit/config"
	"prosekit/state"
)

// buildOutputPath returns output file path for document. Source directory
// structure is kept under dst unless NoDirs is requested, file name is
// cleaned up and transliterated if requested.
func buildOutputPath(src, dst string, format common.Format, env *state.LocalEnv) string {
	return filepath.Join(determineOutputDir(src, dst, env), buildFileName(src, format, env))
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildFileName(src string, format common.Format, env *state.LocalEnv) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if env.Cfg.Output.FileNameTransliterate {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + format.Ext()
}
