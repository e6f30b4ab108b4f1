package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Writer writes export files into Dir, creating it on first use.
type Writer struct {
	Dir string
}

// NewWriter creates a writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

func (w *Writer) path(name string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create output directory %s", w.Dir)
	}
	return filepath.Join(w.Dir, name), nil
}

// WriteTable writes t to <Dir>/<t.Name>.csv and returns the file path.
func (w *Writer) WriteTable(t Table) (string, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(t.Header); err != nil {
		return "", errors.Wrapf(err, "failed to encode %s header", t.Name)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return "", errors.Wrapf(err, "failed to encode %s rows", t.Name)
	}
	return w.writeFile(t.Name+".csv", buf.Bytes())
}

// WriteTables writes every table and returns the written paths in order.
func (w *Writer) WriteTables(tables ...Table) ([]string, error) {
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		p, err := w.WriteTable(t)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteJSON writes v as indented JSON to <Dir>/<name>.json.
func (w *Writer) WriteJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrapf(err, "failed to encode %s as json", name)
	}
	return w.writeFile(name+".json", append(data, '\n'))
}

// WriteYAML writes v as YAML to <Dir>/<name>.yaml. Field names follow the
// json tags of v.
func (w *Writer) WriteYAML(name string, v any) (string, error) {
	data, err := MarshalYAML(v)
	if err != nil {
		return "", errors.Wrapf(err, "failed to encode %s as yaml", name)
	}
	return w.writeFile(name+".yaml", data)
}

// MarshalYAML encodes v as YAML using the key names of its JSON encoding.
func MarshalYAML(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(plain); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Writer) writeFile(name string, data []byte) (string, error) {
	p, err := w.path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", p)
	}
	return p, nil
}
