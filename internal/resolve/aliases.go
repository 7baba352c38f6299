package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

func hasProjectMarker(dir string) bool {
	for _, marker := range projectMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// tsconfig models the subset of tsconfig.json/jsconfig.json we read.
type tsconfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// packageJSON models the subset of package.json we read.
type packageJSON struct {
	Imports map[string]any `json:"imports"`
}

// loadAliasTable builds the specifier-prefix -> target-prefix map for a
// project root from tsconfig-style path maps and package.json import maps.
// Returns an empty (non-nil) table when neither source exists.
func loadAliasTable(root string) map[string]string {
	table := make(map[string]string)

	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		var cfg tsconfig
		if err := json.Unmarshal(sanitizeJSONC(data), &cfg); err != nil {
			continue
		}
		baseURL := cfg.CompilerOptions.BaseURL
		for pattern, targets := range cfg.CompilerOptions.Paths {
			if len(targets) == 0 {
				continue
			}
			prefix := strings.TrimSuffix(pattern, "/*")
			target := strings.TrimSuffix(targets[0], "/*")
			if baseURL != "" && !filepath.IsAbs(target) {
				target = filepath.Join(baseURL, target)
			}
			table[prefix] = target
		}
		break // first config found wins
	}

	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		var pkg packageJSON
		if err := json.Unmarshal(data, &pkg); err == nil {
			for pattern, target := range pkg.Imports {
				t, ok := target.(string)
				if !ok {
					continue
				}
				prefix := strings.TrimSuffix(pattern, "/*")
				table[prefix] = strings.TrimSuffix(strings.TrimPrefix(t, "./"), "/*")
			}
		}
	}

	return table
}

// sanitizeJSONC strips // and /* */ comments plus trailing commas so
// tsconfig files (which are JSONC in practice) survive encoding/json.
func sanitizeJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	i := 0
	for i < len(data) {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				out = append(out, data[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inString = false
			}
			i++
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
			i++
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i += 2
		case c == ',':
			// Drop the comma if the next non-whitespace closes a container.
			j := i + 1
			for j < len(data) && (data[j] == ' ' || data[j] == '\t' || data[j] == '\n' || data[j] == '\r') {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				i++
				continue
			}
			out = append(out, c)
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}
