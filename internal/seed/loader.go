package seed

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Load reads and parses a seed file.
// {{NAME}} placeholders are replaced by the NAME environment variable, so
// owner ids need not be committed.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(expandEnv(data))
}

func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return f, nil
}

func expandEnv(data []byte) []byte {
	return envVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVar.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
