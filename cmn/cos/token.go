// Package cos provides common low-level types and utilities for the DTL.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"strconv"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// Alphabet for generated tokens, same shape as shortid's default one.
const tokenABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const LenShortID = 9 // per https://github.com/teris-io/shortid#id-length

var sid *shortid.Shortid

// InitTokenGen seeds the process-wide token generator. DTL.Create calls this
// once; a zero seed falls back to shortid's own default.
func InitTokenGen(seed uint64) {
	sid = shortid.MustNew(1 /*worker*/, tokenABC, uint64(uint32(seed)))
}

// GenToken mints an opaque, process-stable identifier used for the Staging
// engine's default rendezvous name (when open() is called without an
// explicit URI) and for transaction manifest keys.
func GenToken() string {
	if sid == nil {
		InitTokenGen(0)
	}
	return sid.MustGenerate()
}

// HashActor derives a stable, deterministic ordinal for actorID among a set
// of currently-attached publishers, in the spirit of highest-random-weight
// placement: the same actor always hashes to the same value, so rank
// assignment is reproducible across a re-run of the same scenario.
func HashActor(actorID string) uint64 {
	return xxhash.Checksum64S([]byte(actorID), 0)
}

// FormatRank renders a publisher rank the way FileEngine names data.<k>.
func FormatRank(rank int) string { return strconv.Itoa(rank) }
