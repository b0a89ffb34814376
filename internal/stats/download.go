package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Format is the display/download format of a dataset.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "json" or "csv".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want json or csv)", s)
}

// Toggle returns the other format.
func (f Format) Toggle() Format {
	if f == FormatJSON {
		return FormatCSV
	}
	return FormatJSON
}

// ErrNoData is returned when a download is requested before anything was loaded.
var ErrNoData = errors.New("no data loaded to download")

// View is the currently loaded dataset together with how it is shown.
type View struct {
	Dataset string
	Source  string
	Format  Format
	Data    json.RawMessage
}

// Filename is <dataset>_<source>.<format>.
func (v *View) Filename() string {
	return fmt.Sprintf("%s_%s.%s", v.Dataset, v.Source, v.Format)
}

// Render returns the view's content in its format: indented JSON or wide CSV.
func (v *View) Render() (string, error) {
	if v == nil || len(v.Data) == 0 {
		return "", ErrNoData
	}
	if v.Format == FormatCSV {
		return WideCSV(v.Data)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, v.Data, "", "  "); err != nil {
		return "", fmt.Errorf("indent json: %w", err)
	}
	return buf.String(), nil
}

// Download writes the rendered view into dir and returns the file path.
func Download(dir string, v *View) (string, error) {
	content, err := v.Render()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, v.Filename())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
