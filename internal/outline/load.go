package outline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format of an outline file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unsupported outline file %q", ErrInvalidOutline, filepath.Base(path))
}

// Load reads and validates an outline file.
func Load(path string) (*Outline, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutline, err)
	}
	defer f.Close()
	return Read(f, format)
}

// Read parses and validates an outline in the given format.
func Read(r io.Reader, format Format) (*Outline, error) {
	var (
		o   *Outline
		err error
	)
	switch format {
	case FormatYAML, FormatJSON:
		o, err = readYAML(r)
	case FormatCSV:
		o, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidOutline, format)
	}
	if err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// readYAML handles JSON too; yaml.v3 accepts JSON documents.
func readYAML(r io.Reader) (*Outline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutline, err)
	}
	var o Outline
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutline, err)
	}
	return &o, nil
}

// Column aliases, Spanish headers as the curriculum spreadsheets use them
// plus English equivalents.
var columnAliases = map[string]string{
	"unidad":    "unit",
	"unit":      "unit",
	"capítulo":  "chapter",
	"capitulo":  "chapter",
	"chapter":   "chapter",
	"sección":   "section",
	"seccion":   "section",
	"section":   "section",
	"contenido": "topic",
	"topic":     "topic",
	"content":   "topic",
	"extensión": "pages",
	"extension": "pages",
	"pages":     "pages",
}

func readCSV(r io.Reader) (*Outline, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading csv header: %v", ErrInvalidOutline, err)
	}
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name, ok := columnAliases[h]; ok {
			cols[name] = i
		}
	}
	for _, required := range []string{"unit", "chapter", "section", "topic"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: csv is missing the %s column", ErrInvalidOutline, required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var o Outline
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", ErrInvalidOutline, line, err)
		}
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}

		leaf := Leaf{
			Unit:    field(rec, "unit"),
			Chapter: field(rec, "chapter"),
			Section: field(rec, "section"),
			Topic:   field(rec, "topic"),
		}
		if raw := field(rec, "pages"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				f, ferr := strconv.ParseFloat(raw, 64)
				if ferr != nil || f != float64(int(f)) {
					return nil, fmt.Errorf("%w: csv line %d: pages %q is not an integer", ErrInvalidOutline, line, raw)
				}
				n = int(f)
			}
			leaf = leaf.WithPages(n)
		}
		o.Leaves = append(o.Leaves, leaf)
	}
	return &o, nil
}
