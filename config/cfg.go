package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

// AppName is used for logger name and temporary files.
const AppName = "sharecard"

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	SheetConfig struct {
		Columns    int    `yaml:"columns" validate:"min=1,max=16"`
		ThumbWidth int    `yaml:"thumb_width" validate:"min=16"`
		Gap        int    `yaml:"gap" validate:"gte=0"`
		Background string `yaml:"background" validate:"required"`
	}

	ShareConfig struct {
		LinesPerPage      int         `yaml:"lines_per_page" validate:"min=1"`
		ContinuationTitle string      `yaml:"continuation_title" validate:"required"`
		Label             string      `yaml:"label" validate:"required"`
		NameTemplate      string      `yaml:"name_template" validate:"required"`
		NameTransliterate bool        `yaml:"name_transliterate"`
		Format            string      `yaml:"format" validate:"oneof=png jpeg jpg"`
		JPEGQuality       int         `yaml:"jpeg_quality" validate:"min=40,max=100"`
		DPI               int         `yaml:"dpi" validate:"min=1,max=2400"`
		Backend           string      `yaml:"backend" validate:"oneof=canvas raster"`
		FailurePolicy     string      `yaml:"failure_policy" validate:"oneof=skip abort"`
		LayoutPath        string      `yaml:"layout_path" validate:"omitempty,filepath"`
		Manifest          bool        `yaml:"manifest"`
		Sheet             SheetConfig `yaml:"sheet"`
	}

	Config struct {
		Version int           `yaml:"version" validate:"eq=1"`
		Share   ShareConfig   `yaml:"share"`
		Logging LoggingConfig `yaml:"logging"`
	}
)

const (
	// NOTE: must match yaml field name above
	NameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(NameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
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
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
