// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/staranto/levctl/internal/attrs"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		delimiter string
		want      []Filter
		wantErr   bool
	}{
		{
			name: "empty spec",
			spec: "",
		},
		{
			name: "exact",
			spec: "title=Summer Fair",
			want: []Filter{{Key: "title", Operand: "=", Target: "Summer Fair"}},
		},
		{
			name: "negated prefix",
			spec: "id!^10",
			want: []Filter{{Key: "id", Operand: "^", Target: "10", Negate: true}},
		},
		{
			name: "multiple",
			spec: "title@fair,index<5",
			want: []Filter{
				{Key: "title", Operand: "@", Target: "fair"},
				{Key: "index", Operand: "<", Target: "5"},
			},
		},
		{
			name: "regex",
			spec: "image/\\.jpg$",
			want: []Filter{{Key: "image", Operand: "/", Target: "\\.jpg$"}},
		},
		{
			name: "dotted key and empty target",
			spec: "image.dims=",
			want: []Filter{{Key: "image.dims", Operand: "=", Target: ""}},
		},
		{
			name:      "custom delimiter",
			spec:      "title~a,b|id=1",
			delimiter: "|",
			want: []Filter{
				{Key: "title", Operand: "~", Target: "a,b"},
				{Key: "id", Operand: "=", Target: "1"},
			},
		},
		{
			name:    "no operand",
			spec:    "title=A,bogus",
			wantErr: true,
		},
		{
			name:    "no key",
			spec:    "=A",
			wantErr: true,
		},
		{
			name:    "bad regex",
			spec:    "title/[oops",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delimiter != "" {
				t.Setenv(DelimEnvVar, tt.delimiter)
			}

			got, err := Parse(tt.spec)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_String(t *testing.T) {
	assert.Equal(t, "title!@fair", Filter{Key: "title", Operand: "@", Target: "fair", Negate: true}.String())
}

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		filter Filter
		want   bool
	}{
		{"string exact", `"Summer Fair"`, Filter{Operand: "=", Target: "Summer Fair"}, true},
		{"string exact negated", `"Summer Fair"`, Filter{Operand: "=", Target: "Summer Fair", Negate: true}, false},
		{"case insensitive", `"SUMMER"`, Filter{Operand: "~", Target: "summer"}, true},
		{"prefix", `"https://x/1.jpg"`, Filter{Operand: "^", Target: "https://"}, true},
		{"contains", `"Summer Fair"`, Filter{Operand: "@", Target: "Fair"}, true},
		{"contains negated", `"Summer Fair"`, Filter{Operand: "@", Target: "Gala", Negate: true}, true},
		{"regex", `"12_main.jpg"`, Filter{Operand: "/", Target: `^\d+_`}, true},
		{"string greater", `"b"`, Filter{Operand: ">", Target: "a"}, true},
		{"string less", `"b"`, Filter{Operand: "<", Target: "a"}, false},
		{"number equal", `42`, Filter{Operand: "=", Target: "42"}, true},
		{"number greater", `42.5`, Filter{Operand: ">", Target: "42"}, true},
		{"number less negated", `3`, Filter{Operand: "<", Target: "5", Negate: true}, false},
		{"number prefix falls back to text", `1234`, Filter{Operand: "^", Target: "12"}, true},
		{"number non-numeric target", `1234`, Filter{Operand: "=", Target: "abc"}, false},
		{"bool", `true`, Filter{Operand: "=", Target: "true"}, true},
		{"array contains", `["a","b"]`, Filter{Operand: "@", Target: "b"}, true},
		{"array not contains", `["a","b"]`, Filter{Operand: "@", Target: "c", Negate: true}, true},
		{"object key", `{"width":1}`, Filter{Operand: "@", Target: "width"}, true},
		{"object wrong operand", `{"width":1}`, Filter{Operand: "=", Target: "width"}, false},
		{"null never matches", `null`, Filter{Operand: "=", Target: "", Negate: true}, false},
		{"unsupported operand", `"x"`, Filter{Operand: "?", Target: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(gjson.Parse(tt.json)))
		})
	}

	assert.False(t, Filter{Operand: "=", Target: ""}.Match(gjson.Result{}), "missing never matches")
}

func TestFilterDataset(t *testing.T) {
	rows := gjson.Parse(`[
		{"index":0,"id":"1","title":"Summer Fair","image":{"dims":"640x480","bytes":2048}},
		{"index":1,"id":"2","title":"Winter Gala","image":{"dims":"10x10","bytes":100}},
		{"index":2,"id":"","title":"No title","image":null}
	]`)

	list := attrs.AttrList{}
	require.NoError(t, list.Set("id,title:Event,image.bytes:size,!index"))

	t.Run("no filters", func(t *testing.T) {
		got, err := FilterDataset(rows, list, nil)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Summer Fair", got[0]["Event"])
		assert.Equal(t, float64(2048), got[0]["size"])
		assert.Equal(t, float64(0), got[0]["index"])
		assert.Nil(t, got[2]["size"])
	})

	t.Run("by output key", func(t *testing.T) {
		filters, err := Parse("Event@Gala")
		require.NoError(t, err)
		got, err := FilterDataset(rows, list, filters)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "2", got[0]["id"])
	})

	t.Run("by key and numeric", func(t *testing.T) {
		filters, err := Parse("image.bytes>1000")
		require.NoError(t, err)
		got, err := FilterDataset(rows, list, filters)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "1", got[0]["id"])
	})

	t.Run("excluded attr still filters", func(t *testing.T) {
		filters, err := Parse("index>0,id!=")
		require.NoError(t, err)
		got, err := FilterDataset(rows, list, filters)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Winter Gala", got[0]["Event"])
	})

	t.Run("unknown key", func(t *testing.T) {
		filters, err := Parse("venue=Hall")
		require.NoError(t, err)
		_, err = FilterDataset(rows, list, filters)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})

	t.Run("nothing matches", func(t *testing.T) {
		filters, err := Parse("id=99")
		require.NoError(t, err)
		got, err := FilterDataset(rows, list, filters)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
