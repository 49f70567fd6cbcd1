package markdown

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/rogersnm/docsync/internal/model"
	"gopkg.in/yaml.v3"
)

// ParseError reports a document whose front matter is malformed or fails
// validation.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid front matter in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads YAML frontmatter and body from r into T.
func Parse[T any](r io.Reader) (T, string, error) {
	var meta T
	body, err := frontmatter.Parse(r, &meta)
	if err != nil {
		return meta, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return meta, strings.TrimSpace(string(body)), nil
}

// Marshal serializes meta as YAML frontmatter followed by body.
func Marshal[T any](meta T, body string) ([]byte, error) {
	yamlBytes, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(yamlBytes)
	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// ReadFile reads a document file and validates its front matter.
func ReadFile(path string) (model.Frontmatter, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Frontmatter{}, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	meta, body, err := Parse[model.Frontmatter](f)
	if err != nil {
		return meta, "", &ParseError{Path: path, Err: err}
	}
	if err := meta.Validate(); err != nil {
		return meta, "", &ParseError{Path: path, Err: err}
	}
	return meta, body, nil
}

// WriteFile writes body under meta to path, creating parent directories.
// A nil meta writes body verbatim. The file is left untouched when its
// content already matches, so unchanged documents keep their mtime.
func WriteFile(path, body string, meta *model.Frontmatter) error {
	var data []byte
	if meta == nil {
		data = []byte(body)
	} else {
		var err error
		if data, err = Marshal(meta, body); err != nil {
			return err
		}
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
