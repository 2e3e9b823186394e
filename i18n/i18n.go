// Package i18n translates user visible strings. Message keys are the English
// strings themselves, so unknown keys translate to themselves.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// Translate is the translate collaborator signature.
type Translate func(key string) string

// Translator translates into a single language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

var bundle *catalog.Builder

func loadCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	entries, err := localeFiles.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("bad locale file name %q: %w", e.Name(), err)
		}
		data, err := localeFiles.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, err
		}
		var messages map[string]string
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("unable to parse locale %q: %w", name, err)
		}
		for key, msg := range messages {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("locale %q, key %q: %w", name, key, err)
			}
		}
	}
	return b, nil
}

func init() {
	var err error
	if bundle, err = loadCatalog(); err != nil {
		panic(fmt.Sprintf("unable to load embedded locales: %v", err))
	}
}

// Languages lists languages with translations.
func Languages() []language.Tag {
	return bundle.Languages()
}

// New returns translator for the closest supported language, English when
// nothing matches.
func New(lang string, log *zap.Logger) *Translator {
	if log == nil {
		log = zap.NewNop()
	}
	supported := bundle.Languages()
	tag := language.English
	if want, err := language.Parse(lang); err != nil {
		log.Warn("Unable to parse language, using default", zap.String("lang", lang), zap.Error(err))
	} else {
		_, index, confidence := language.NewMatcher(supported).Match(want)
		if confidence != language.No {
			tag = supported[index]
		} else {
			log.Debug("Language is not supported, using default", zap.Stringer("lang", want))
		}
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(bundle))}
}

// Language returns language translator was created for.
func (t *Translator) Language() language.Tag {
	return t.tag
}

// Translate returns translation of key or key itself.
func (t *Translator) Translate(key string) string {
	// keys are not format strings
	if strings.Contains(key, "%") {
		return key
	}
	return t.printer.Sprintf(key)
}

// Func returns translator as translate collaborator.
func (t *Translator) Func() Translate {
	return t.Translate
}
