// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}

func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func OutputValidator(value any) error {
	if s, ok := value.(string); ok && slices.Contains(validOutputFlagValues, s) {
		return nil
	}
	return fmt.Errorf("must be one of %v", validOutputFlagValues)
}

// URLValidator requires an absolute http or https URL.
func URLValidator(value any) error {
	u, err := url.Parse(value.(string))
	if err != nil {
		return fmt.Errorf("must be a URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http or https URL")
	}
	return nil
}

func PositiveValidator(value any) error {
	if value.(int) < 1 {
		return errors.New("must be at least 1")
	}
	return nil
}

func NonNegativeValidator(value any) error {
	if value.(int) < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// ByteSizeValidator accepts sizes such as 512, 64MB or 1GiB.
func ByteSizeValidator(value any) error {
	if _, err := humanize.ParseBytes(value.(string)); err != nil {
		return fmt.Errorf("must be a byte size: %w", err)
	}
	return nil
}
