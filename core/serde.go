package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bndr/gotabulate"
)

const customRawKey = "@raw" // used to store non-object values in Record

var empty = struct{}{}

// printableAttrs are shown as their own rows by PrettyTable; the rest are folded into one JSON cell.
var printableAttrs = map[string]struct{}{
	"id":             empty,
	"name":           empty,
	"display_name":   empty,
	"diff_type":      empty,
	"operation":      empty,
	"operation_type": empty,
	"timestamp":      empty,
	"version":        empty,
	"latest_version": empty,
}

//  ######################################################
//              RETURN TYPES
//  ######################################################

// getPrintableAttrs returns a slice of keys to be printed from the Record
func getPrintableAttrs(r Record) []string {
	var attrs []string
	for key := range r {
		if _, ok := printableAttrs[key]; ok {
			attrs = append(attrs, key)
		}
	}
	sort.Strings(attrs) // Sort to keep consistent order
	return attrs
}

// Renderable is an interface implemented by types that can render themselves
// into a human-readable string format, typically for CLI display or logging.
type Renderable interface {
	PrettyTable() string
	PrettyJson(indent ...string) string
}

// Record is a generic decoded response object, used when no typed model applies.
type Record map[string]any

// RecordSet is a list of Records.
type RecordSet []Record

// ToRecord decodes a body into a Record. Bodies that are not objects are kept under "@raw".
func ToRecord(codec Codec, body []byte) (Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Record{}, nil
	}
	generic, err := normalizeJSON(codec, body)
	if err != nil {
		return nil, err
	}
	if m, ok := generic.(map[string]any); ok {
		return m, nil
	}
	return Record{customRawKey: generic}, nil
}

// PrettyTable prints a single Record as a table
func (r Record) PrettyTable() string {
	headers := []string{"attr", "value"}
	var rows [][]any
	if len(r) == 0 {
		return "<>"
	}
	// Iterate over printable attributes and add them to rows
	for _, key := range getPrintableAttrs(r) {
		if val, ok := r[key]; ok && val != nil {
			rows = append(rows, []any{key, fmt.Sprintf("%v", val)})
		}
	}

	// Collect remaining attributes that are not in printableAttrs
	remainingAttrs := make(map[string]any)
	for key, value := range r {
		if _, ok := printableAttrs[key]; !ok && value != nil {
			remainingAttrs[key] = value
		}
	}
	if len(remainingAttrs) > 0 {
		// Marshal remainingAttrs into compact JSON
		remainingJSON, _ := json.Marshal(remainingAttrs)
		rows = append(rows, []any{"<<remaining attrs>>", string(remainingJSON)})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders(headers)
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(85)
	return fmt.Sprintf("\n%s", t.Render("grid"))
}

// PrettyJson prints the Record as JSON, optionally indented
func (r Record) PrettyJson(indent ...string) string {
	var b []byte
	var err error
	if len(indent) > 0 {
		b, err = json.MarshalIndent(r, "", indent[0])
	} else {
		b, err = json.Marshal(r)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}

func (r Record) Empty() bool {
	return len(r) == 0
}

func (r Record) String() string {
	return r.PrettyTable()
}

// Fill populates container (a pointer to a struct) from the Record through its json tags.
func (r Record) Fill(container any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, container)
}

// RecordSetFrom splits a list valued attribute (e.g. "results") into a RecordSet.
func RecordSetFrom(r Record, key string) (RecordSet, error) {
	raw, ok := r[key]
	if !ok || raw == nil {
		return RecordSet{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("attribute %q is %T, not a list", key, raw)
	}
	set := make(RecordSet, 0, len(items))
	for _, item := range items {
		if m, isMap := item.(map[string]any); isMap {
			set = append(set, m)
		} else {
			set = append(set, Record{customRawKey: item})
		}
	}
	return set, nil
}

// PrettyTable prints the RecordSet as a table, one row per Record.
func (rs RecordSet) PrettyTable() string {
	if len(rs) == 0 {
		return "[]"
	}
	keys := make(map[string]struct{})
	for _, r := range rs {
		for key := range r {
			keys[key] = empty
		}
	}
	headers := make([]string, 0, len(keys))
	for key := range keys {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	rows := make([][]any, 0, len(rs))
	for _, r := range rs {
		row := make([]any, 0, len(headers))
		for _, key := range headers {
			row = append(row, cell(r[key]))
		}
		rows = append(rows, row)
	}
	t := gotabulate.Create(rows)
	t.SetHeaders(headers)
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(85)
	return t.Render("grid")
}

func cell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		b, _ := json.Marshal(v)
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (rs RecordSet) Empty() bool {
	return len(rs) == 0
}

// PrettyJson prints the RecordSet as JSON, optionally indented
func (rs RecordSet) PrettyJson(indent ...string) string {
	var b []byte
	var err error
	if len(indent) > 0 {
		b, err = json.MarshalIndent(rs, "", indent[0])
	} else {
		b, err = json.Marshal(rs)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}
