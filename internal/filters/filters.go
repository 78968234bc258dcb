// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/levctl/internal/attrs"
	"github.com/staranto/levctl/internal/driller"
)

// DelimEnvVar overrides the "," between filter expressions.
const DelimEnvVar = "LEVCTL_FILTER_DELIM"

// ErrInvalidFilter is wrapped by every error from Parse and FilterDataset.
var ErrInvalidFilter = errors.New("invalid filter")

// filterRegex splits key, operand and target. Operands are one of
// = ^ ~ < > @ or /, optionally prefixed with '!'.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter is one parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

func (f Filter) String() string {
	neg := ""
	if f.Negate {
		neg = "!"
	}
	return f.Key + neg + f.Operand + f.Target
}

// Parse splits spec into filters. A malformed expression or regex is an
// error.
func Parse(spec string) ([]Filter, error) {
	if spec == "" {
		return nil, nil
	}

	delim := ","
	if d, ok := os.LookupEnv(DelimEnvVar); ok && d != "" {
		delim = d
	}

	//nolint:prealloc
	var filters []Filter
	for _, expr := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(expr)
		if parts == nil || parts[1] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, expr)
		}

		f := Filter{Key: strings.TrimSpace(parts[1]), Operand: parts[2], Target: parts[3]}
		if strings.HasPrefix(f.Operand, "!") {
			f.Negate = true
			f.Operand = f.Operand[1:]
		}
		if f.Operand == "/" {
			if _, err := regexp.Compile(f.Target); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFilter, expr, err)
			}
		}
		filters = append(filters, f)
	}

	return filters, nil
}

// FilterDataset keeps the rows of candidates that pass every filter and
// projects each onto attrs, keyed by OutputKey. Filter keys name an attr by
// its OutputKey or Key. Values are left untransformed.
func FilterDataset(candidates gjson.Result, list attrs.AttrList, filters []Filter) ([]map[string]interface{}, error) {
	keys := make([]string, len(filters))
	for i, f := range filters {
		key, ok := resolveKey(list, f.Key)
		if !ok {
			return nil, fmt.Errorf("%w: unknown attribute %q", ErrInvalidFilter, f.Key)
		}
		keys[i] = key
	}

	results := make([]map[string]interface{}, 0)
	for _, candidate := range candidates.Array() {
		if !matchAll(candidate, keys, filters) {
			continue
		}

		row := make(map[string]interface{}, len(list))
		for _, attr := range list {
			if attr.Key == "*" {
				continue
			}
			row[attr.OutputKey] = driller.Driller(candidate.Raw, attr.Key).Value()
		}
		results = append(results, row)
	}

	log.Debugf("filters kept %d of %d rows", len(results), len(candidates.Array()))
	return results, nil
}

func resolveKey(list attrs.AttrList, name string) (string, bool) {
	for _, attr := range list {
		if attr.OutputKey == name {
			return attr.Key, true
		}
	}
	for _, attr := range list {
		if attr.Key == name {
			return attr.Key, true
		}
	}
	return "", false
}

func matchAll(candidate gjson.Result, keys []string, filters []Filter) bool {
	for i, f := range filters {
		if !f.Match(driller.Driller(candidate.Raw, keys[i])) {
			return false
		}
	}
	return true
}

// Match reports whether value passes f. Missing and null values never pass.
func (f Filter) Match(value gjson.Result) bool {
	switch value.Type {
	case gjson.String:
		return f.matchString(value.Str)
	case gjson.True, gjson.False:
		return f.matchString(value.String())
	case gjson.Number:
		return f.matchNumber(value.Num)
	case gjson.JSON:
		return f.matchContains(value)
	default:
		return false
	}
}

func (f Filter) matchString(value string) bool {
	var ok bool
	switch f.Operand {
	case "=":
		ok = value == f.Target
	case "~":
		ok = strings.EqualFold(value, f.Target)
	case "^":
		ok = strings.HasPrefix(value, f.Target)
	case ">":
		ok = value > f.Target
	case "<":
		ok = value < f.Target
	case "@":
		ok = strings.Contains(value, f.Target)
	case "/":
		matched, err := regexp.MatchString(f.Target, value)
		if err != nil {
			log.Error("invalid regex: " + f.Target)
			return false
		}
		ok = matched
	default:
		log.Error("unsupported filtering operand: " + f.Operand)
		return false
	}
	return ok != f.Negate
}

func (f Filter) matchNumber(value float64) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(f.Target), 64)
	if err != nil {
		// Not a numeric target, compare textually instead.
		return f.matchString(strconv.FormatFloat(value, 'f', -1, 64))
	}

	var ok bool
	switch f.Operand {
	case "=":
		ok = value == tgt
	case ">":
		ok = value > tgt
	case "<":
		ok = value < tgt
	default:
		return f.matchString(strconv.FormatFloat(value, 'f', -1, 64))
	}
	return ok != f.Negate
}

// matchContains handles '@' against arrays (element equality) and objects
// (key presence).
func (f Filter) matchContains(value gjson.Result) bool {
	if f.Operand != "@" {
		log.Error(fmt.Sprintf("operand %s is not supported on %s", f.Operand, value.Raw))
		return false
	}

	found := false
	switch {
	case value.IsArray():
		for _, item := range value.Array() {
			if item.String() == f.Target {
				found = true
				break
			}
		}
	case value.IsObject():
		found = value.Get(gjson.Escape(f.Target)).Exists()
	}
	return found != f.Negate
}
