package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/yegor-usoltsev/chownmap/internal/mapfile"
	"github.com/yegor-usoltsev/chownmap/internal/schema"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var errUnknownFormat = errors.New("unknown sample format, expected ini or yaml")

type templateData struct {
	SchemaURL string
}

// Sample renders the example mapping file for format ("ini" or "yaml").
func Sample(format string) ([]byte, error) {
	var name string
	switch format {
	case "", "ini":
		name = "map.ini.tmpl"
	case "yaml", "yml":
		name = "map.yaml.tmpl"
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
	return renderTemplate(name, templateData{SchemaURL: schema.V0URL})
}

// WriteSample writes the sample to w, or to path when it is not empty. An
// existing file is never overwritten. Without an explicit format the one
// matching path's extension is used.
func WriteSample(w io.Writer, path, format string) error {
	if format == "" && path != "" && mapfile.FormatOf(path) == mapfile.YAML {
		format = "yaml"
	}
	b, err := Sample(format)
	if err != nil {
		return err
	}
	if path == "" {
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return writeExclusive(path, 0o644, b)
}

func renderTemplate(name string, data templateData) ([]byte, error) {
	p := filepath.Join("templates", name)
	t, err := template.New(name).Option("missingkey=error").ParseFS(templatesFS, p)
	if err != nil {
		return nil, fmt.Errorf("parse template: %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template: %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func writeExclusive(path string, perm fs.FileMode, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create file: %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("write file: %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %s: %w", path, err)
	}
	return nil
}
