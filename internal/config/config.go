package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path (following its include list), applies
// defaults for keys that were not set, and validates the result.
func Load(path string) (*Config, error) {
	files, err := resolveConfigIncludes(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	for _, file := range files {
		if err := mergeConfigFile(v, file); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", file, err)
		}
	}
	bindEnvOverrides(v)
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			trimStringsHook,
		)
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	setKeys := make(keySet)
	collectSettingsKeys(v.AllSettings(), setKeys)
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envOverrides are keys that may be supplied through VAXMAP_* variables,
// e.g. VAXMAP_MAP_ACCESS_TOKEN, so secrets can stay out of the YAML.
var envOverrides = []string{
	"data.source",
	"map.access_token",
	"notify.telegram.bot_token",
	"notify.telegram.chat_id",
}

func bindEnvOverrides(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envOverrides {
		_ = v.BindEnv(key)
	}
}

// EnvPrefix prefixes every environment variable vaxmap reads.
const EnvPrefix = "VAXMAP"

func trimStringsHook(from, to reflect.Kind, data any) (any, error) {
	if from == reflect.String && to == reflect.String {
		return strings.TrimSpace(reflect.ValueOf(data).String()), nil
	}
	return data, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	tmp := viper.New()
	tmp.SetConfigFile(path)
	if err := tmp.ReadInConfig(); err != nil {
		return err
	}
	return v.MergeConfigMap(tmp.AllSettings())
}

func resolveConfigIncludes(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := includeWalker{seen: map[string]bool{}, stack: map[string]bool{}}
	if err := w.walk(abs); err != nil {
		return nil, err
	}
	if len(w.ordered) == 0 {
		return []string{abs}, nil
	}
	return w.ordered, nil
}

// includeWalker orders config files depth-first so that included files are
// merged before the file that includes them.
type includeWalker struct {
	seen    map[string]bool
	stack   map[string]bool
	ordered []string
}

func (w *includeWalker) walk(path string) error {
	path = filepath.Clean(path)
	if w.stack[path] {
		return fmt.Errorf("include cycle detected: %s", path)
	}
	if w.seen[path] {
		return nil
	}
	w.stack[path] = true
	includes, err := parseIncludeList(path)
	if err != nil {
		return fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		if err := w.walk(inc); err != nil {
			return err
		}
	}
	delete(w.stack, path)
	w.seen[path] = true
	w.ordered = append(w.ordered, path)
	return nil
}

func parseIncludeList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Include yaml.Node `yaml:"include"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Include.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if inc := strings.TrimSpace(head.Include.Value); inc != "" {
			return []string{inc}, nil
		}
		return nil, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(head.Include.Content))
		for _, item := range head.Include.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("include only supports strings")
			}
			if inc := strings.TrimSpace(item.Value); inc != "" {
				out = append(out, inc)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("include must be a string or string array")
	}
}

func collectSettingsKeys(settings map[string]any, dest keySet) {
	if dest == nil || len(settings) == 0 {
		return
	}
	flattenConfigKeys("", settings, dest)
}

func flattenConfigKeys(prefix string, node any, dest keySet) {
	join := func(k string) string {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	switch val := node.(type) {
	case map[string]any:
		for k, v := range val {
			if next := join(k); next != "" {
				flattenConfigKeys(next, v, dest)
			}
		}
	case map[any]any:
		for k, v := range val {
			if ks, ok := k.(string); ok {
				if next := join(ks); next != "" {
					flattenConfigKeys(next, v, dest)
				}
			}
		}
	case nil:
		// unset env binding
	default:
		// scalars and lists both count as an explicit setting
		dest.mark(prefix)
	}
}
