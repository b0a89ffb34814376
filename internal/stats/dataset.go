package stats

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
)

// AgentSeries is one agent's time-keyed values, kept as display text.
type AgentSeries struct {
	Name   string
	Keys   []string // document order
	Values map[string]string
}

// Dataset is a per-agent statistics response such as
// {"Agent 0": {"0": 1.5, "2": 3.0}}.
type Dataset struct {
	Agents []AgentSeries
	Raw    json.RawMessage
}

// DecodeDataset parses a per-agent statistics response. Agents keep
// document order; an agent whose value is not an object has no values.
func DecodeDataset(data []byte) (*Dataset, error) {
	members, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	ds := &Dataset{Raw: append(json.RawMessage(nil), data...)}
	for _, m := range members {
		as := AgentSeries{Name: m.Key, Values: make(map[string]string)}
		if inner, err := decodeObject(m.Value); err == nil {
			for _, kv := range inner {
				if _, dup := as.Values[kv.Key]; !dup {
					as.Keys = append(as.Keys, kv.Key)
				}
				as.Values[kv.Key] = scalarText(kv.Value)
			}
		}
		ds.Agents = append(ds.Agents, as)
	}
	return ds, nil
}

// TimeKeys returns the union of all agents' keys: numeric keys in
// ascending numeric order, then non-numeric keys in first-seen order.
func (d *Dataset) TimeKeys() []string {
	seen := make(map[string]bool)
	var numeric, other []string
	for _, a := range d.Agents {
		for _, k := range a.Keys {
			if seen[k] {
				continue
			}
			seen[k] = true
			if _, ok := numericKey(k); ok {
				numeric = append(numeric, k)
			} else {
				other = append(other, k)
			}
		}
	}
	sort.SliceStable(numeric, func(i, j int) bool {
		a, _ := numericKey(numeric[i])
		b, _ := numericKey(numeric[j])
		return a < b
	})
	return append(numeric, other...)
}

// WideCSV renders the dataset with one column per agent and one row per
// time key. Missing values are empty fields. Rows are separated by "\n"
// with no trailing newline.
func (d *Dataset) WideCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(d.Agents))
	for i, a := range d.Agents {
		header[i] = a.Name
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, k := range d.TimeKeys() {
		row := make([]string, len(d.Agents))
		for i, a := range d.Agents {
			row[i] = a.Values[k]
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// WideCSV decodes a per-agent statistics response and renders it as CSV.
func WideCSV(data []byte) (string, error) {
	ds, err := DecodeDataset(data)
	if err != nil {
		return "", err
	}
	return ds.WideCSV()
}
