// Package cmn provides common constants, types, and utilities shared by the
// DTL's packages: the engine/transport enums, the legal-combination matrix,
// and the stream-preset configuration they're loaded from.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"fmt"

	"github.com/simgrid/dtlmod/cmn/cos"
)

type (
	EngineType      string
	TransportMethod string
)

const (
	EngineUndef   EngineType = ""
	EngineFile    EngineType = "File"
	EngineStaging EngineType = "Staging"

	TransportUndef   TransportMethod = ""
	TransportFile    TransportMethod = "File"
	TransportMQ      TransportMethod = "MQ"
	TransportMailbox TransportMethod = "Mailbox"
)

// ValidCombination implements spec.md §3's legal Stream combinations:
// File<->File, Staging<->{MQ, Mailbox}. Anything else - including either
// side left undefined - is not a valid, checkable combination (callers
// distinguish "undefined" from "invalid" themselves via the Undef consts).
func ValidCombination(e EngineType, t TransportMethod) bool {
	switch e {
	case EngineFile:
		return t == TransportFile
	case EngineStaging:
		return t == TransportMQ || t == TransportMailbox
	default:
		return false
	}
}

type (
	// StreamPreset is one entry of the "streams" array in the DTL config file.
	StreamPreset struct {
		Name           string          `json:"name"`
		Engine         EngineType      `json:"engine"`
		Transport      TransportMethod `json:"transport"`
		MetadataExport *bool           `json:"metadata_export,omitempty"`
	}

	Config struct {
		Streams []StreamPreset `json:"streams"`

		// ambient, optional
		Verbosity  int  `json:"verbosity,omitempty"`
		TestingEnv bool `json:"testing_env,omitempty"`
	}
)

// Validate checks every preset's engine/transport pair. Loading a config
// with an invalid pair fails fast rather than lazily at Stream.open, per
// SPEC_FULL.md §4.1.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Streams))
	for _, p := range c.Streams {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate stream preset name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Engine == EngineUndef || p.Transport == TransportUndef {
			continue // a preset may leave engine/transport to be set later via Stream setters
		}
		if !ValidCombination(p.Engine, p.Transport) {
			return cos.NewErrInvalidEngineAndTransportCombination(string(p.Engine), string(p.Transport))
		}
	}
	return nil
}

// MetadataExportDefault resolves the preset's metadata_export flag, which
// defaults to true for File-engine streams and false otherwise.
func (p *StreamPreset) MetadataExportDefault() bool {
	if p.MetadataExport != nil {
		return *p.MetadataExport
	}
	return p.Engine == EngineFile
}
