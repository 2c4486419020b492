// Package transport - MQ transport: one queue per (stream, publisher),
// a subscriber pops a single message carrying the byte count of the
// slab it represents.
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

type MQ struct {
	mq simkernel.MessageQueue
}

var _ Method = (*MQ)(nil)

func NewMQ(mq simkernel.MessageQueue) *MQ { return &MQ{mq: mq} }

func (*MQ) Kind() cmn.TransportMethod { return cmn.TransportMQ }

func (t *MQ) Push(ctx context.Context, key string, n uint64) error {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, n)
	return t.mq.Push(ctx, key, payload)
}

func (t *MQ) Pull(ctx context.Context, key string) (uint64, error) {
	payload, err := t.mq.Pop(ctx, key)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(payload), nil
}
