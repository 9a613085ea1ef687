// Package schema maps application records to remote table rows. Each
// table is described once as a list of fields; both directions are
// derived from that table.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Row is one record as exchanged with the remote service.
type Row = map[string]any

// Coerce selects how a remote value is normalised when read.
type Coerce int

const (
	// None passes the value through.
	None Coerce = iota
	// Numeric parses text and JSON numbers to float64.
	Numeric
	// Integer parses text and JSON numbers to int64.
	Integer
)

// Field pairs an app-side (camelCase JSON) name with its remote column.
type Field struct {
	App      string
	Remote   string
	Coerce   Coerce
	ReadOnly bool
}

// Mapping is the field table of one remote table.
type Mapping struct {
	Table  string
	Fields []Field
}

// ToRemote converts v (a struct with json tags, or a map keyed by app
// names) to a remote row. Read-only fields are skipped and app keys not in
// the table are dropped. extra columns, such as user_id, are added last
// and win over mapped values.
func (m Mapping) ToRemote(v any, extra Row) (Row, error) {
	app, err := toMap(v)
	if err != nil {
		return nil, err
	}
	row := make(Row, len(m.Fields)+len(extra))
	for _, f := range m.Fields {
		if f.ReadOnly {
			continue
		}
		val, ok := app[f.App]
		if !ok {
			continue
		}
		if n, isNum := val.(json.Number); isNum {
			val = numberValue(n)
		}
		row[f.Remote] = val
	}
	for k, v := range extra {
		row[k] = v
	}
	return row, nil
}

// Columns returns the remote column list, suitable for a select.
func (m Mapping) Columns() string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = f.Remote
	}
	return strings.Join(cols, ",")
}

// FromRemote decodes a remote row into out, which must be a pointer to a
// struct tagged with the app names.
func (m Mapping) FromRemote(row Row, out any) error {
	app, err := m.toApp(row)
	if err != nil {
		return err
	}
	return Decode(app, out)
}

// FromRemoteList decodes rows into out, a pointer to a slice of structs.
func (m Mapping) FromRemoteList(rows []Row, out any) error {
	list := make([]map[string]any, 0, len(rows))
	for i, row := range rows {
		app, err := m.toApp(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		list = append(list, app)
	}
	return Decode(list, out)
}

func (m Mapping) toApp(row Row) (map[string]any, error) {
	app := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		val, ok := row[f.Remote]
		if !ok || val == nil {
			continue
		}
		coerced, err := coerce(val, f.Coerce)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Table, f.Remote, err)
		}
		app[f.App] = coerced
	}
	return app, nil
}

func coerce(val any, c Coerce) (any, error) {
	if c == None {
		if n, ok := val.(json.Number); ok {
			return numberValue(n), nil
		}
		return val, nil
	}

	var f float64
	switch v := val.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q as number: %w", v, err)
		}
		f = parsed
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("parsing %q as number: %w", v, err)
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return nil, fmt.Errorf("unexpected %T for numeric column", val)
	}

	if c == Integer {
		return int64(math.Round(f)), nil
	}
	return f, nil
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func toMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	return m, nil
}

// Decode copies a map (or slice of maps) keyed by app names into out,
// converting text to numbers where the target field needs it.
func Decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decoding row: %w", err)
	}
	return nil
}
