// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/staranto/levctl/internal/attrs"
	"github.com/staranto/levctl/internal/filters"
)

func TestSortDataset(t *testing.T) {
	testData := []map[string]interface{}{
		{"title": "zebra", "index": 3.0, "id": "B"},
		{"title": "Alpha", "index": 1.0, "id": "a"},
		{"title": "beta", "index": 2.0, "id": "a"},
	}

	tests := []struct {
		name      string
		spec      string
		wantOrder []string
	}{
		{
			name:      "ascending by title",
			spec:      "title",
			wantOrder: []string{"Alpha", "beta", "zebra"},
		},
		{
			name:      "descending by title",
			spec:      "-title",
			wantOrder: []string{"zebra", "beta", "Alpha"},
		},
		{
			name:      "ascending by index",
			spec:      "index",
			wantOrder: []string{"Alpha", "beta", "zebra"},
		},
		{
			name:      "descending by index",
			spec:      "-index",
			wantOrder: []string{"zebra", "beta", "Alpha"},
		},
		{
			name:      "case sensitive",
			spec:      "!title",
			wantOrder: []string{"Alpha", "beta", "zebra"},
		},
		{
			name:      "case sensitive puts upper first",
			spec:      "!id,title",
			wantOrder: []string{"zebra", "Alpha", "beta"},
		},
		{
			name:      "multiple fields",
			spec:      "id,-index",
			wantOrder: []string{"beta", "Alpha", "zebra"},
		},
		{
			name:      "combined prefixes",
			spec:      "-!id,title",
			wantOrder: []string{"Alpha", "beta", "zebra"},
		},
		{
			name:      "empty spec",
			spec:      "",
			wantOrder: []string{"zebra", "Alpha", "beta"},
		},
		{
			name:      "unknown field keeps order",
			spec:      "venue",
			wantOrder: []string{"zebra", "Alpha", "beta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]interface{}, len(testData))
			copy(data, testData)
			SortDataset(data, tt.spec)
			for i, expected := range tt.wantOrder {
				assert.Equal(t, expected, data[i]["title"], "at index %d", i)
			}
		})
	}
}

func TestSortDataset_MissingFirst(t *testing.T) {
	data := []map[string]interface{}{
		{"title": "b", "bytes": 20.0},
		{"title": "a"},
		{"title": "c", "bytes": 10.0},
	}
	SortDataset(data, "bytes")
	assert.Equal(t, []interface{}{"a", "c", "b"}, []interface{}{data[0]["title"], data[1]["title"], data[2]["title"]})
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		emptyVal string
		want     string
	}{
		{name: "string", value: "hello", want: "hello"},
		{name: "int", value: 42, want: "42"},
		{name: "float64", value: 42.5, want: "42"},
		{name: "float64 rounds", value: 42.7, want: "43"},
		{name: "bool true", value: true, want: "true"},
		{name: "bool false is zero value", value: false, want: ""},
		{name: "nil default", value: nil, want: ""},
		{name: "nil custom", value: nil, emptyVal: "-", want: "-"},
		{name: "slice", value: []string{"a", "b"}, want: `["a","b"]`},
		{name: "map", value: map[string]int{"x": 1}, want: `{"x":1}`},
		{name: "zero value int", value: 0, want: ""},
		{name: "zero value with custom empty", value: 0, emptyVal: "N/A", want: "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.emptyVal != "" {
				got = InterfaceToString(tt.value, tt.emptyVal)
			} else {
				got = InterfaceToString(tt.value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "", Bytes(0))
	assert.Equal(t, "512 B", Bytes(512))
	assert.Equal(t, "48 kB", Bytes(48000))
}

const sampleRows = `[
	{"index":0,"id":"1","title":"Summer Fair","image":"https://x/1_main.jpg"},
	{"index":1,"id":"2","title":"Art Walk","image":"https://x/2_main.jpg"},
	{"index":2,"id":"3","title":"Winter Gala","image":""}
]`

func sampleAttrs(t *testing.T, spec string) attrs.AttrList {
	t.Helper()
	list := attrs.AttrList{}
	require.NoError(t, list.Set(spec))
	require.NoError(t, list.SetGlobalTransformSpec())
	return list
}

func TestSliceDiceSpit(t *testing.T) {
	t.Run("raw", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, SliceDiceSpit([]byte(sampleRows), Options{Format: "raw"}, &buf))
		assert.Equal(t, sampleRows, buf.String())
	})

	t.Run("json filtered sorted projected", func(t *testing.T) {
		fs, err := filters.Parse("index<2")
		require.NoError(t, err)

		var buf bytes.Buffer
		opts := Options{
			Format:  "json",
			Attrs:   sampleAttrs(t, "id,title:Event:U,!index"),
			Filters: fs,
			Sort:    "Event",
		}
		require.NoError(t, SliceDiceSpit([]byte(sampleRows), opts, &buf))

		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, []map[string]interface{}{
			{"id": "2", "Event": "ART WALK"},
			{"id": "1", "Event": "SUMMER FAIR"},
		}, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		opts := Options{Format: "yaml", Attrs: sampleAttrs(t, "id"), Sort: "-id"}
		require.NoError(t, SliceDiceSpit([]byte(sampleRows), opts, &buf))

		var got []map[string]string
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, []map[string]string{{"id": "3"}, {"id": "2"}, {"id": "1"}}, got)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		opts := Options{Format: "text", Attrs: sampleAttrs(t, "id,image"), Titles: true}
		require.NoError(t, SliceDiceSpit([]byte(sampleRows), opts, &buf))

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 4)
		assert.Contains(t, lines[0], "id")
		assert.Contains(t, lines[0], "image")
		assert.Contains(t, lines[1], "https://x/1_main.jpg")
		assert.Contains(t, lines[3], "-")
	})

	t.Run("global transform", func(t *testing.T) {
		var buf bytes.Buffer
		opts := Options{Format: "json", Attrs: sampleAttrs(t, "*::4,title"), Sort: "index"}
		require.NoError(t, SliceDiceSpit([]byte(sampleRows), opts, &buf))

		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 3)
		assert.Equal(t, "Summ", got[0]["title"])
	})

	t.Run("invalid json", func(t *testing.T) {
		err := SliceDiceSpit([]byte("{"), Options{Format: "json"}, &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("unknown filter key", func(t *testing.T) {
		fs, err := filters.Parse("venue=Hall")
		require.NoError(t, err)
		err = SliceDiceSpit([]byte(sampleRows), Options{Format: "json", Attrs: sampleAttrs(t, "id"), Filters: fs}, &bytes.Buffer{})
		assert.ErrorIs(t, err, filters.ErrInvalidFilter)
	})
}

func TestTableWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	TableWriter(nil, Options{Attrs: attrs.AttrList{{Key: "id", OutputKey: "id", Include: true}}}, &buf)
	assert.Empty(t, buf.String())
}

func TestDumpExamples(t *testing.T) {
	var buf bytes.Buffer
	DumpExamples(&buf, [][2]string{{"levctl list", "List events"}})
	assert.Contains(t, buf.String(), "levctl list")
	assert.Contains(t, buf.String(), "List events")

	buf.Reset()
	DumpExamples(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestSchema(t *testing.T) {
	type image struct {
		Dims  string `json:"dims"`
		Bytes int    `json:"bytes"`
	}
	type row struct {
		ID     string `json:"id"`
		Title  string `json:"title,omitempty"`
		Hidden string `json:"-"`
		Image  *image `json:"image"`
	}

	assert.Equal(t, []string{"id", "image", "image.bytes", "image.dims", "title"}, Schema(reflect.TypeOf(row{})))

	var buf bytes.Buffer
	DumpSchema(&buf, reflect.TypeOf(row{}))
	assert.Equal(t, "id\nimage\nimage.bytes\nimage.dims\ntitle\n", buf.String())
}

func TestGetColors(t *testing.T) {
	header, even, odd := getColors("colors")
	assert.NotEmpty(t, header)
	assert.NotEmpty(t, even)
	assert.NotEmpty(t, odd)
}

func BenchmarkSortDataset(b *testing.B) {
	testData := []map[string]interface{}{
		{"title": "zebra", "index": 3.0},
		{"title": "alpha", "index": 1.0},
		{"title": "beta", "index": 2.0},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data := make([]map[string]interface{}, len(testData))
		copy(data, testData)
		SortDataset(data, "title")
	}
}
