// Package simtest provides in-memory fakes of the simkernel and simfs
// collaborator interfaces, for use by package tests only - grounded on
// the teacher's cluster/mock package, which exists purely to satisfy an
// interface in tests (cluster/mock/stats_mock.go).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package simtest

import (
	"context"
	"sync"
	"time"

	"github.com/simgrid/dtlmod/simkernel"
)

type (
	// Kernel is a single-threaded, in-process fake of simkernel.Kernel.
	// Clock advances only on SleepFor (there is no separate event loop);
	// compute charges and message transfers are accounted for but
	// otherwise instantaneous.
	Kernel struct {
		mu sync.Mutex

		self simkernel.ActorID
		now  time.Duration

		queues   map[string][][]byte
		mailbox  map[string][][]byte
		charged  float64
		notify   *sync.Cond
	}
)

var _ simkernel.Kernel = (*Kernel)(nil)

func NewKernel(self simkernel.ActorID) *Kernel {
	k := &Kernel{
		self:    self,
		queues:  make(map[string][][]byte),
		mailbox: make(map[string][][]byte),
	}
	k.notify = sync.NewCond(&k.mu)
	return k
}

func (k *Kernel) Self() simkernel.ActorID { return k.self }

func (k *Kernel) Now() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.now
}

func (k *Kernel) SleepFor(d time.Duration) {
	k.mu.Lock()
	k.now += d
	k.mu.Unlock()
}

func (k *Kernel) Charge(_ context.Context, _ string, flops float64) error {
	k.mu.Lock()
	k.charged += flops
	k.mu.Unlock()
	return nil
}

// TotalCharged returns the cumulative FLOPs charged across all Charge
// calls, for test assertions.
func (k *Kernel) TotalCharged() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.charged
}

func (k *Kernel) Push(_ context.Context, key string, payload []byte) error {
	k.mu.Lock()
	k.queues[key] = append(k.queues[key], payload)
	k.notify.Broadcast()
	k.mu.Unlock()
	return nil
}

func (k *Kernel) Pop(ctx context.Context, key string) ([]byte, error) {
	stop := k.wakeOnDone(ctx)
	defer stop()

	k.mu.Lock()
	defer k.mu.Unlock()
	for len(k.queues[key]) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		k.notify.Wait()
	}
	payload := k.queues[key][0]
	k.queues[key] = k.queues[key][1:]
	return payload, nil
}

// wakeOnDone broadcasts on ctx cancellation so a goroutine blocked in
// notify.Wait() re-checks ctx.Err() instead of hanging until the next
// unrelated Push/Put. The returned func must be called once the waiter
// is done waiting, to stop the watcher goroutine.
func (k *Kernel) wakeOnDone(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			k.mu.Lock()
			k.notify.Broadcast()
			k.mu.Unlock()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (k *Kernel) Put(_ context.Context, name string, payload []byte) error {
	k.mu.Lock()
	k.mailbox[name] = append(k.mailbox[name], payload)
	k.notify.Broadcast()
	k.mu.Unlock()
	return nil
}

func (k *Kernel) Get(ctx context.Context, name string) ([]byte, error) {
	stop := k.wakeOnDone(ctx)
	defer stop()

	k.mu.Lock()
	defer k.mu.Unlock()
	for len(k.mailbox[name]) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		k.notify.Wait()
	}
	payload := k.mailbox[name][0]
	k.mailbox[name] = k.mailbox[name][1:]
	return payload, nil
}
