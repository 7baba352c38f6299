// Package workspace enumerates the source files an analysis session covers.
// Inside a git repository it asks git for the file list so .gitignore is
// honored; otherwise it walks the filesystem with a compiled .gitignore
// matcher and a fixed skip list.
package workspace

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/trellis/internal/lang"
)

// skipDirs are directories never worth descending into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	"__pycache__":  true,
}

// Options filters enumeration.
type Options struct {
	// Languages restricts results to the named languages. Empty means all
	// supported languages.
	Languages []string
	// ExcludeDirs adds directory names to the built-in skip list.
	ExcludeDirs []string
}

// ListFiles returns the absolute paths of all supported source files under
// root, sorted. root must be an existing directory; that precondition is the
// caller's to guarantee.
func ListFiles(root string, opts Options) ([]string, error) {
	langSet := make(map[string]bool, len(opts.Languages))
	for _, l := range opts.Languages {
		langSet[l] = true
	}
	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}

	keep := func(path string) (string, bool) {
		l, ok := lang.ForPath(path)
		if !ok {
			return "", false
		}
		if len(langSet) > 0 && !langSet[l.Name] {
			return "", false
		}
		return l.Name, true
	}

	if files, ok := gitListFiles(root, keep, excluded); ok {
		sort.Strings(files)
		return files, nil
	}
	files, err := walkListFiles(root, keep, excluded)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// gitListFiles lists tracked and untracked-but-not-ignored files via
// git ls-files. Returns ok=false when root is not a git work tree or git is
// unavailable.
func gitListFiles(root string, keep func(string) (string, bool), excluded map[string]bool) ([]string, bool) {
	if info, err := os.Stat(filepath.Join(root, ".git")); err != nil || !info.IsDir() {
		return nil, false
	}

	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, false
	}

	var files []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || underExcludedDir(line, excluded) {
			continue
		}
		abs := filepath.Join(root, line)
		if _, err := os.Stat(abs); err != nil {
			continue // listed but deleted from the working tree
		}
		if _, ok := keep(abs); ok {
			files = append(files, abs)
		}
	}
	return files, true
}

// walkListFiles is the non-git fallback: a filesystem walk honoring the skip
// list, hidden-directory convention, and the root .gitignore when present.
func walkListFiles(root string, keep func(string) (string, bool), excluded map[string]bool) ([]string, error) {
	var gi *ignore.GitIgnore
	if compiled, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		gi = compiled
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || skipDirs[name] || excluded[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if gi != nil {
			if rel, relErr := filepath.Rel(root, path); relErr == nil && gi.MatchesPath(rel) {
				return nil
			}
		}
		if _, ok := keep(path); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func underExcludedDir(rel string, excluded map[string]bool) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if skipDirs[part] || excluded[part] || strings.HasPrefix(part, ".") {
			if part != "." && part != ".." {
				return true
			}
		}
	}
	return false
}
