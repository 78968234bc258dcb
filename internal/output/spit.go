// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/staranto/levctl/internal/attrs"
	"github.com/staranto/levctl/internal/config"
	"github.com/staranto/levctl/internal/filters"
)

// Options controls SliceDiceSpit.
type Options struct {
	// Format is one of text, json, yaml or raw.
	Format  string
	Attrs   attrs.AttrList
	Filters []filters.Filter
	Sort    string
	Titles  bool
	Color   bool
}

// OptionsFromCommand reads the common output flags from cmd.
func OptionsFromCommand(cmd *cli.Command, list attrs.AttrList) (Options, error) {
	fs, err := filters.Parse(cmd.String("filter"))
	if err != nil {
		return Options{}, err
	}

	if err := list.Set(cmd.String("attrs")); err != nil {
		return Options{}, err
	}
	if err := list.SetGlobalTransformSpec(); err != nil {
		return Options{}, err
	}

	return Options{
		Format:  cmd.String("output"),
		Attrs:   list,
		Filters: fs,
		Sort:    cmd.String("sort"),
		Titles:  cmd.Bool("titles"),
		Color:   cmd.Bool("color"),
	}, nil
}

// SliceDiceSpit filters, transforms, sorts and renders raw, a JSON array of
// row objects.
func SliceDiceSpit(raw []byte, opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	if opts.Format == "raw" {
		_, err := w.Write(raw)
		return err
	}

	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("rows are not valid JSON")
	}

	dataset, err := filters.FilterDataset(gjson.ParseBytes(raw), opts.Attrs, opts.Filters)
	if err != nil {
		return err
	}

	// Sort before transforming so truncation and case don't change the order.
	SortDataset(dataset, opts.Sort)

	for _, row := range dataset {
		for i := range opts.Attrs {
			attr := &opts.Attrs[i]
			if attr.TransformSpec != "" {
				row[attr.OutputKey] = attr.Transform(row[attr.OutputKey])
			}
		}
	}

	switch opts.Format {
	case "json":
		out, err := json.Marshal(project(dataset, opts.Attrs))
		if err != nil {
			return fmt.Errorf("failed to marshal rows: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(project(dataset, opts.Attrs))
		if err != nil {
			return fmt.Errorf("failed to marshal rows: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		TableWriter(dataset, opts, w)
		return nil
	}
}

// project drops the values of attrs that are only there for filtering and
// sorting.
func project(dataset []map[string]interface{}, list attrs.AttrList) []map[string]interface{} {
	out := make([]map[string]interface{}, len(dataset))
	for i, row := range dataset {
		m := make(map[string]interface{}, len(list))
		for _, attr := range list {
			if attr.Include {
				m[attr.OutputKey] = row[attr.OutputKey]
			}
		}
		out[i] = m
	}
	return out
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(resultSet []map[string]interface{}, opts Options, w io.Writer) {
	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	included := opts.Attrs.Included()

	rows := make([][]string, 0, len(resultSet))
	for _, result := range resultSet {
		row := make([]string, 0, len(included))
		for _, attr := range included {
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	pad, _ := config.GetInt("padding", 2)

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		headers := make([]string, 0, len(included))
		for _, attr := range included {
			headers = append(headers, attr.OutputKey)
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// DumpExamples renders a table of example command usages.
func DumpExamples(w io.Writer, examples [][2]string) {
	if len(examples) == 0 {
		return
	}

	rows := make([][]string, 0, len(examples))
	for _, ex := range examples {
		rows = append(rows, []string{ex[0], ex[1]})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		Headers("Command", "Description").
		BorderHeader(false).
		Rows(rows...)

	fmt.Fprintln(w, t)
}

// Schema lists the attribute paths of typ's json tags, one level of nested
// structs deep, sorted.
func Schema(typ reflect.Type) []string {
	var walk func(prefix string, typ reflect.Type, depth int) []string
	walk = func(prefix string, typ reflect.Type, depth int) []string {
		for typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}
		if typ.Kind() != reflect.Struct {
			return nil
		}

		var names []string
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			tag, ok := field.Tag.Lookup("json")
			if !ok || tag == "-" {
				continue
			}
			name := strings.Split(tag, ",")[0]
			if prefix != "" {
				name = prefix + "." + name
			}
			names = append(names, name)

			if depth < 1 {
				names = append(names, walk(name, field.Type, depth+1)...)
			}
		}
		return names
	}

	names := walk("", typ, 0)
	sort.Strings(names)
	return names
}

// DumpSchema prints Schema(typ) for --schema.
func DumpSchema(w io.Writer, typ reflect.Type) {
	names := Schema(typ)
	if len(names) == 0 {
		log.Debugf("no json tags found for type: %s", typ.Name())
		return
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// Bytes renders a byte count the way people read it, "48 kB".
func Bytes(n int) string {
	if n <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(n))
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		// Row values are counts and sizes, never fractional.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
