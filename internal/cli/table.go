package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxCellWidth truncates long cell values so one verbose description does
// not wreck the whole table.
const maxCellWidth = 60

// Rows digs the first array of objects out of a gateway payload. Zoho
// responses nest lists under data.<key> (data.workspaces, data.views,
// data.rows) depending on the operation; some shapes put the array directly
// under data. Returns false when no such array is found, in which case the
// caller should fall back to key-value rendering.
func Rows(payload map[string]interface{}, keys ...string) ([]map[string]interface{}, bool) {
	candidates := []interface{}{payload["data"]}
	if data, ok := payload["data"].(map[string]interface{}); ok {
		for _, key := range keys {
			candidates = append(candidates, data[key])
		}
	}
	for _, key := range keys {
		candidates = append(candidates, payload[key])
	}

	for _, candidate := range candidates {
		arr, ok := candidate.([]interface{})
		if !ok {
			continue
		}
		rows := make([]map[string]interface{}, 0, len(arr))
		for _, item := range arr {
			row, ok := item.(map[string]interface{})
			if !ok {
				rows = nil
				break
			}
			rows = append(rows, row)
		}
		if rows != nil {
			return rows, true
		}
	}

	return nil, false
}

// Object digs a nested object out of a gateway payload the same way Rows
// digs out a list. Single-entity responses nest the object under data.<key>
// or plain data. Falls back to the payload itself so the caller always has
// something to render.
func Object(payload map[string]interface{}, keys ...string) map[string]interface{} {
	if data, ok := payload["data"].(map[string]interface{}); ok {
		for _, key := range keys {
			if obj, ok := data[key].(map[string]interface{}); ok {
				return obj
			}
		}
		return data
	}
	for _, key := range keys {
		if obj, ok := payload[key].(map[string]interface{}); ok {
			return obj
		}
	}
	return payload
}

// Columns picks the column order for a row set. Preferred columns present in
// the data come first in the given order; when none of them match, all keys
// are used in sorted order.
func Columns(rows []map[string]interface{}, preferred []string) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for key := range row {
			present[key] = true
		}
	}

	var columns []string
	for _, key := range preferred {
		if present[key] {
			columns = append(columns, key)
		}
	}
	if len(columns) > 0 {
		return columns
	}

	for key := range present {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

// RenderTable renders rows as a rounded table with the given column order.
func RenderTable(out io.Writer, columns []string, rows []map[string]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	for i, column := range columns {
		header[i] = text.FgHiCyan.Sprint(strings.ToUpper(column))
	}
	t.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i, column := range columns {
			cells[i] = formatCell(row[column])
		}
		t.AppendRow(cells)
	}

	t.Render()
}

// RenderKeyValue renders a single object as a KEY/VALUE table with keys in
// sorted order.
func RenderKeyValue(out io.Writer, data map[string]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("KEY"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t.AppendRow(table.Row{key, formatCell(data[key])})
	}

	t.Render()
}

// RenderJSON pretty-prints data as indented JSON.
func RenderJSON(out io.Writer, data interface{}) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(out, string(encoded))
	return nil
}

// formatCell flattens a cell value for table display. Nested structures are
// compacted to JSON, long values truncated.
func formatCell(value interface{}) string {
	if value == nil {
		return "-"
	}

	var cell string
	switch v := value.(type) {
	case string:
		cell = v
	case map[string]interface{}, []interface{}:
		if encoded, err := json.Marshal(v); err == nil {
			cell = string(encoded)
		} else {
			cell = fmt.Sprintf("%v", v)
		}
	case float64:
		// JSON numbers decode as float64; render integral values without
		// the decimal point.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		cell = fmt.Sprintf("%v", v)
	}

	if len(cell) > maxCellWidth {
		cell = cell[:maxCellWidth-3] + "..."
	}
	return cell
}
