// Package location creates and maintains the input tree of a CLOVER
// location.
package location

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/clover/core/logger"
)

var (
	// ErrExists is returned when scaffolding a location that already exists
	// without asking for an update.
	ErrExists = errors.New("location already exists")
	// ErrNotFound is returned when a location directory is missing.
	ErrNotFound = errors.New("location not found")
)

//go:embed templates
var templates embed.FS

// Options control Scaffold.
type Options struct {
	// FromExisting names a location whose input files are copied instead of
	// the templates.
	FromExisting string
	// Update writes the files missing from an existing location and leaves
	// the others untouched.
	Update bool
	Log    logger.Logger
}

// Scaffold creates the input tree of the named location under root and
// returns the files it wrote, relative to the location directory.
func Scaffold(root, name string, opts Options) ([]string, error) {
	log := logger.OrNop(opts.Log)
	if err := checkName(name); err != nil {
		return nil, err
	}
	l := At(root, name)
	if _, err := os.Stat(l.Dir); err == nil && !opts.Update {
		return nil, fmt.Errorf("%w: %s", ErrExists, l.Dir)
	}

	src, err := sourceFS(root, opts.FromExisting)
	if err != nil {
		return nil, err
	}
	var written []string
	err = fs.WalkDir(src, "inputs", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == ProfilesDir || p == GridStatusDir {
				return fs.SkipDir
			}
			return nil
		}
		dst := l.Path(p)
		if _, err := os.Stat(dst); err == nil {
			log.Debugf("keeping existing %s", p)
			return nil
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if p == LocationInputsFile {
			if data, err = setScalar(data, "name", name); err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
		written = append(written, p)
		return nil
	})
	if err != nil {
		return written, err
	}
	for _, dir := range []string{ProfilesDir, GridStatusDir, OutputsDir} {
		if err := os.MkdirAll(l.Path(dir), 0o755); err != nil {
			return written, err
		}
	}
	log.Infof("location %s: %d file(s) written", name, len(written))
	return written, nil
}

func sourceFS(root, from string) (fs.FS, error) {
	if from == "" {
		return fs.Sub(templates, "templates")
	}
	l := At(root, from)
	if _, err := os.Stat(l.Path("inputs")); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, from)
	}
	return os.DirFS(l.Dir), nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Clean(name) != name {
		return fmt.Errorf("invalid location name %q", name)
	}
	return nil
}

// setScalar sets a top-level key of a YAML mapping document, keeping the
// comments and the order of the other keys. The key is appended when absent.
func setScalar(data []byte, key, value string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping document")
	}
	m := doc.Content[0]
	found := false
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			v := m.Content[i+1]
			v.Kind, v.Tag, v.Value, v.Style = yaml.ScalarNode, "!!str", value, 0
			v.Content = nil
			found = true
			break
		}
	}
	if !found {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
