package logging

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

// moduleRoot walks up from this file to the directory holding go.mod.
func moduleRoot(t *testing.T) string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Unable to get current file path")
	}

	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("Could not find go.mod to determine module root")
		}
		dir = parent
	}
}

// TestNoDirectLogging keeps production code on the logging package instead of
// fmt.Print*, log.Print* and the print builtins.
func TestNoDirectLogging(t *testing.T) {
	root := moduleRoot(t)

	patterns := []*regexp.Regexp{
		regexp.MustCompile(`\bfmt\.Print(f|ln)?\s*\(`),
		regexp.MustCompile(`\blog\.Print(f|ln)?\s*\(`),
		regexp.MustCompile(`\blog\.Fatal(f|ln)?\s*\(`),
		regexp.MustCompile(`\bprintln\s*\(`),
		regexp.MustCompile(`\bprint\s*\(`),
	}

	// main.go prints the version for --version.
	exclude := regexp.MustCompile(`(_test\.go|^main\.go)$`)

	var violations []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			// Underscore and dot directories are ignored by the go tool too.
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if exclude.MatchString(rel) {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := strings.TrimSpace(scanner.Text())
			if strings.HasPrefix(line, "//") {
				continue
			}
			for _, p := range patterns {
				if p.MatchString(line) {
					violations = append(violations, rel+":"+strconv.Itoa(lineNum)+": "+line)
				}
			}
		}
		return scanner.Err()
	})
	if err != nil {
		t.Fatalf("Error walking module tree: %v", err)
	}

	for _, v := range violations {
		t.Errorf("direct logging call: %s", v)
	}
	if len(violations) > 0 {
		t.Errorf("Use logging.InfoWithComponent(), logging.WarnWithComponent(), logging.ErrorWithComponent(), etc. instead")
	}
}

