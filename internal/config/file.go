package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// fileValues holds a TOML config file flattened to "section.key" strings.
// It sits below flags, environment and .env in precedence.
type fileValues map[string]string

// loadFileValues reads a TOML config file. An empty path yields no values.
func loadFileValues(path string) (fileValues, error) {
	values := fileValues{}
	if path == "" {
		return values, nil
	}

	expanded, err := expandPath(path, "")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", expanded, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", expanded, err)
	}

	flatten("", raw, values)
	return values, nil
}

func flatten(prefix string, in map[string]any, out fileValues) {
	for key, value := range in {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[full] = strings.Join(parts, ",")
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

func (f fileValues) orDefault(key, defaultValue string) string {
	if v, ok := f[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

func (f fileValues) intOr(key string, defaultValue int) int {
	v, ok := f[key]
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func (f fileValues) boolOr(key string, defaultValue bool) bool {
	v, ok := f[key]
	if !ok || v == "" {
		return defaultValue
	}
	return parseBool(v)
}
