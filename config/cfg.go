package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"prosekit/schema"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	EditorConfig struct {
		AllowedNodes []string          `yaml:"allowed_nodes" validate:"dive,required"`
		AllowedMarks []string          `yaml:"allowed_marks" validate:"dive,required"`
		Classes      map[string]string `yaml:"classes" validate:"dive,keys,required,endkeys"`
		Language     string            `yaml:"language" validate:"required,bcp47_language_tag"`
	}

	UploadConfig struct {
		Dir     string `yaml:"dir" sanitize:"path_clean" validate:"required"`
		BaseURL string `yaml:"base_url" validate:"required"`
		MaxSize int64  `yaml:"max_size" validate:"gt=0"`
	}

	OutputConfig struct {
		Sanitize              bool `yaml:"sanitize"`
		Indent                int  `yaml:"indent" validate:"min=0,max=8"`
		FileNameTransliterate bool `yaml:"file_name_transliterate"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Editor    EditorConfig   `yaml:"editor"`
		Upload    UploadConfig   `yaml:"upload"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// SchemaConfig converts editor section to schema assembly settings.
func (conf *EditorConfig) SchemaConfig() schema.Config {
	return schema.Config{
		AllowedNodes: conf.AllowedNodes,
		AllowedMarks: conf.AllowedMarks,
		ClassNames:   conf.Classes,
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation. Lists in the file replace default
// lists, class names are merged with defaults.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
