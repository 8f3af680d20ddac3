// Package config loads the project file that tells temple which templates to
// check and which Go types to generate Render methods for.
//
// HCL, YAML and TOML are accepted:
//
//	package  = "views"
//	receiver = "me"
//
//	template "page" {
//	  path = "views/page.tpl"
//	  type = "Page"
//	}
package config

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultReceiver     = "me"
	DefaultOutputSuffix = ".temple.go"
)

// DefaultFileNames are looked up, in order, when no config path is given.
var DefaultFileNames = []string{".temple.hcl", ".temple.yaml", ".temple.yml", ".temple.toml"}

// DefaultInclude is used by check when no include globs are configured.
var DefaultInclude = []string{"**/*.tpl", "**/*.temple"}

// 📝 Config file structure
type Config struct {
	// Package is the Go package generated files belong to, unless a template overrides it.
	Package      string   `json:"package,omitempty" yaml:"package,omitempty" hcl:"package,optional" toml:"package"`
	Receiver     string   `json:"receiver,omitempty" yaml:"receiver,omitempty" hcl:"receiver,optional" toml:"receiver"`
	OutputSuffix string   `json:"output_suffix,omitempty" yaml:"output_suffix,omitempty" hcl:"output_suffix,optional" toml:"output_suffix"`
	Include      []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional" toml:"include"`
	Exclude      []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional" toml:"exclude"`

	Templates []*Template `json:"templates,omitempty" yaml:"templates,omitempty" hcl:"template,block" toml:"templates"`

	// Dir is the directory the config was loaded from; relative paths resolve against it.
	Dir string `json:"-" yaml:"-" toml:"-"`
}

// 🎯 A template bound to a Go type
type Template struct {
	Name     string `json:"name" yaml:"name" hcl:"name,label" toml:"name"`
	Path     string `json:"path" yaml:"path" hcl:"path,attr" toml:"path"`
	Type     string `json:"type" yaml:"type" hcl:"type,attr" toml:"type"`
	Receiver string `json:"receiver,omitempty" yaml:"receiver,omitempty" hcl:"receiver,optional" toml:"receiver"`
	Package  string `json:"package,omitempty" yaml:"package,omitempty" hcl:"package,optional" toml:"package"`
	// Output defaults to the template path with its extension replaced by the output suffix.
	Output string `json:"output,omitempty" yaml:"output,omitempty" hcl:"output,optional" toml:"output"`
}

// Default returns the configuration used when no config file exists.
func Default(dir string) *Config {
	cfg := &Config{Dir: dir}
	cfg.applyDefaults()
	return cfg
}

// Find returns the first default config file present in dir, or "" if none is.
func Find(fs afero.Fs, dir string) (string, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		ok, err := afero.Exists(fs, path)
		if err != nil {
			return "", errors.Errorf("checking for %s: %w", path, err)
		}
		if ok {
			return path, nil
		}
	}
	return "", nil
}

// Discover loads the config at path, or the first default config in dir when path
// is empty. With neither, Default(dir) is returned.
func Discover(fs afero.Fs, path, dir string) (*Config, error) {
	if path == "" {
		found, err := Find(fs, dir)
		if err != nil {
			return nil, err
		}
		if found == "" {
			return Default(dir), nil
		}
		path = found
	}
	return Load(fs, path)
}

// 📝 Load config from file (supports YAML, TOML and HCL)
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		cfg, err = decodeYAML(data)
	case ".toml":
		cfg, err = decodeTOML(data)
	default:
		cfg, err = decodeHCL(data, path)
	}
	if err != nil {
		return nil, err
	}

	cfg.Dir = filepath.Dir(path)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func decodeYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

func decodeTOML(data []byte) (*Config, error) {
	var cfg Config
	meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	if err != nil {
		return nil, errors.Errorf("parsing TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("parsing TOML: unknown field %q", undecoded[0].String())
	}
	return &cfg, nil
}

func decodeHCL(data []byte, path string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, ctx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Receiver == "" {
		cfg.Receiver = DefaultReceiver
	}
	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = DefaultOutputSuffix
	}
	if len(cfg.Include) == 0 {
		cfg.Include = DefaultInclude
	}
	for _, t := range cfg.Templates {
		if t.Receiver == "" {
			t.Receiver = cfg.Receiver
		}
		if t.Package == "" {
			t.Package = cfg.Package
		}
		if t.Output == "" {
			t.Output = strings.TrimSuffix(t.Path, filepath.Ext(t.Path)) + cfg.OutputSuffix
		}
	}
}

// Validate checks that every template can be generated.
func (cfg *Config) Validate() error {
	seen := map[string]bool{}
	for i, t := range cfg.Templates {
		name := t.Name
		if name == "" {
			return errors.Errorf("template #%d: missing name", i+1)
		}
		if seen[name] {
			return errors.Errorf("template %q: defined more than once", name)
		}
		seen[name] = true

		if t.Path == "" {
			return errors.Errorf("template %q: missing path", name)
		}
		if t.Type == "" {
			return errors.Errorf("template %q: missing type", name)
		}
		if t.Package == "" {
			return errors.Errorf("template %q: missing package (set it on the template or at the top level)", name)
		}
		if t.Output == t.Path {
			return errors.Errorf("template %q: output would overwrite the template", name)
		}
	}
	return nil
}

// Resolve makes p absolute against the config's directory.
func (cfg *Config) Resolve(p string) string {
	if filepath.IsAbs(p) || cfg.Dir == "" {
		return p
	}
	return filepath.Join(cfg.Dir, p)
}

// Lookup returns the template with the given name.
func (cfg *Config) Lookup(name string) (*Template, bool) {
	for _, t := range cfg.Templates {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
