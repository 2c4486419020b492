// Package transport - Mailbox transport: a direct put/get pair with a
// subscriber-first receive, transfers serialized on the subscriber's
// mailbox name.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"
	"encoding/binary"

	"github.com/simgrid/dtlmod/cmn"
	"github.com/simgrid/dtlmod/simkernel"
)

type Mailbox struct {
	mbox simkernel.Mailbox
}

var _ Method = (*Mailbox)(nil)

func NewMailbox(mbox simkernel.Mailbox) *Mailbox { return &Mailbox{mbox: mbox} }

func (*Mailbox) Kind() cmn.TransportMethod { return cmn.TransportMailbox }

func (t *Mailbox) Push(ctx context.Context, key string, n uint64) error {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, n)
	return t.mbox.Put(ctx, key, payload)
}

func (t *Mailbox) Pull(ctx context.Context, key string) (uint64, error) {
	payload, err := t.mbox.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(payload), nil
}
