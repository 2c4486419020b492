// Package engine - FileEngine: bound to Transport::File, writes
// publisher slabs into "data.<k>" files and, when metadata_export is
// set, maintains a buntdb-backed "md.idx" transaction manifest.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"

	"github.com/simgrid/dtlmod/cmn/cos"
	"github.com/simgrid/dtlmod/dtl"
	"github.com/simgrid/dtlmod/simfs"
	"github.com/simgrid/dtlmod/simkernel"
	"github.com/simgrid/dtlmod/stats"
	"github.com/simgrid/dtlmod/transport"
	"github.com/simgrid/dtlmod/variable"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// manifestPollInterval is the simulated tick awaitFirstCommitted sleeps
// between checks of a not-yet-committed md.idx.
const manifestPollInterval = time.Microsecond

// sharedManifests holds the one md.idx buntdb handle every FileEngine
// opened against a given URI shares, ref-counted so the handle outlives
// whichever engine opened it first and is torn down once the last one
// closes. A publisher's FileEngine and a subscriber's FileEngine for
// the same URI are, in general, distinct *FileEngine values (possibly
// in different actors), so the manifest cannot live on either one of
// them alone the way the original per-instance buntdb.Open(":memory:")
// did.
var sharedManifests = struct {
	mtx  sync.Mutex
	dbs  map[string]*buntdb.DB
	refs map[string]int
}{
	dbs:  make(map[string]*buntdb.DB),
	refs: make(map[string]int),
}

func acquireManifest(uri string) (*buntdb.DB, error) {
	sharedManifests.mtx.Lock()
	defer sharedManifests.mtx.Unlock()
	if db, ok := sharedManifests.dbs[uri]; ok {
		sharedManifests.refs[uri]++
		return db, nil
	}
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	sharedManifests.dbs[uri] = db
	sharedManifests.refs[uri] = 1
	return db, nil
}

func releaseManifest(uri string) error {
	sharedManifests.mtx.Lock()
	defer sharedManifests.mtx.Unlock()
	sharedManifests.refs[uri]--
	if sharedManifests.refs[uri] > 0 {
		return nil
	}
	db := sharedManifests.dbs[uri]
	delete(sharedManifests.dbs, uri)
	delete(sharedManifests.refs, uri)
	if db == nil {
		return nil
	}
	return db.Close()
}

type (
	// manifestEntry is one row persisted to md.idx per committed
	// transaction/variable pair.
	manifestEntry struct {
		Variable string   `json:"variable"`
		Shape    []uint64 `json:"shape"`
		ElemSize uint64   `json:"element_size"`
		Bytes    uint64   `json:"bytes"`
		Rank     int      `json:"rank"`
	}

	FileEngine struct {
		mtx sync.Mutex

		stream *dtl.Stream
		mode   Mode
		uri    string
		state  State

		zone, fsName, path string
		rank               int // this actor's publisher index, for data.<rank>
		fsys               simfs.Filesystem
		xport              *transport.File
		kernel             simkernel.Kernel // for reduction/inverse compute charges; nil-safe
		host               string
		tracker            *stats.Tracker // nil unless the caller wants metrics

		mdb *buntdb.DB // nil unless metadata_export

		currentTxnID uint64
		puts         []bufferedPut
		gets         []bufferedGet
	}
)

var _ Engine = (*FileEngine)(nil)

// OpenFile dispatches Stream.open(uri, mode) for Transport::File, per
// spec.md §4.4. uri is "<zone>:<fs-name>:<absolute-path>".
func OpenFile(ctx context.Context, stream *dtl.Stream, uri string, mode Mode, fsys simfs.Filesystem, rank int, kernel simkernel.Kernel, host string, tracker *stats.Tracker) (*FileEngine, error) {
	zone, fsName, path, err := parseFileURI(uri)
	if err != nil {
		return nil, err
	}
	fe := &FileEngine{
		stream:  stream,
		mode:    mode,
		uri:     uri,
		state:   Opened,
		zone:    zone,
		fsName:  fsName,
		path:    path,
		rank:    rank,
		fsys:    fsys,
		xport:   transport.NewFile(fsys, zone, fsName),
		kernel:  kernel,
		host:    host,
		tracker: tracker,
	}
	if stream.MetadataExport() {
		mdb, derr := acquireManifest(uri)
		if derr != nil {
			return nil, derr
		}
		fe.mdb = mdb
	}

	switch mode {
	case Publish:
		stream.IncPublishers()
	case Subscribe:
		stream.IncSubscribers()
		if stream.MetadataExport() {
			if err := fe.awaitFirstCommitted(ctx); err != nil {
				return nil, err
			}
		}
	}
	return fe, nil
}

func parseFileURI(uri string) (zone, fsName, path string, err error) {
	var i, j int
	for idx, c := range uri {
		if c == ':' {
			if i == 0 {
				i = idx
			} else {
				j = idx
				break
			}
		}
	}
	if i == 0 || j == 0 {
		return "", "", "", cos.NewErrUsage("malformed File engine URI " + uri)
	}
	return uri[:i], uri[i+1 : j], uri[j+1:], nil
}

func (fe *FileEngine) Stream() *dtl.Stream        { return fe.stream }
func (fe *FileEngine) Mode() Mode                 { return fe.mode }
func (fe *FileEngine) URI() string                { return fe.uri }
func (fe *FileEngine) State() State               { return fe.state }
func (fe *FileEngine) CurrentTransactionID() uint64 {
	fe.mtx.Lock()
	defer fe.mtx.Unlock()
	return fe.currentTxnID
}

func (fe *FileEngine) dataPath() string { return fe.path + "/data." + strconv.Itoa(fe.rank) }

func (fe *FileEngine) BeginTransaction() error {
	fe.mtx.Lock()
	defer fe.mtx.Unlock()
	if err := requireState(fe.state, Opened); err != nil {
		return err
	}
	fe.state = InTransaction
	fe.puts = fe.puts[:0]
	fe.gets = fe.gets[:0]
	return nil
}

func (fe *FileEngine) Put(v *variable.Variable, explicitBytes ...uint64) error {
	fe.mtx.Lock()
	defer fe.mtx.Unlock()
	if err := requireState(fe.state, InTransaction); err != nil {
		return err
	}
	bytes, flops, err := publisherBytes(v, explicitBytes)
	if err != nil {
		fe.state = Failed
		return err
	}
	fe.puts = append(fe.puts, bufferedPut{v: v, bytes: bytes, flops: flops})
	return nil
}

func (fe *FileEngine) Get(v *variable.Variable) error {
	fe.mtx.Lock()
	defer fe.mtx.Unlock()
	if err := requireState(fe.state, InTransaction); err != nil {
		return err
	}
	fe.gets = append(fe.gets, bufferedGet{v: v})
	return nil
}

// EndTransaction writes all buffered puts to data.<rank> in insertion
// order, and/or resolves all buffered gets against data.*/md.idx, then
// advances current_transaction_id.
func (fe *FileEngine) EndTransaction(ctx context.Context) error {
	fe.mtx.Lock()
	defer fe.mtx.Unlock()
	if err := requireState(fe.state, InTransaction); err != nil {
		return err
	}

	if fe.mode == Publish {
		var total uint64
		for _, p := range fe.puts {
			if err := fe.xport.Push(ctx, fe.dataPath(), p.bytes); err != nil {
				fe.state = Failed
				return err
			}
			if err := fe.charge(ctx, p.flops); err != nil {
				fe.state = Failed
				return err
			}
			total += p.bytes
		}
		if fe.mdb != nil {
			if err := fe.appendManifest(); err != nil {
				fe.state = Failed
				return err
			}
		}
		if fe.tracker != nil {
			fe.tracker.AddBytesPublished(fe.stream.Name, total)
		}
		// Only the rank-0 publisher advances the shared rendezvous
		// epoch, so a transaction round committed by several
		// publishers still counts once (mirrors StagingEngine).
		if fe.rank == 0 {
			fe.stream.IncCommittedTxns()
		}
	} else {
		var total uint64
		for i := range fe.gets {
			selected, flops, err := subscriberBytes(fe.gets[i].v, fe.totalCommittedTxns())
			if err != nil {
				fe.state = Failed
				return err
			}
			read, err := fe.readSelectedBytes(ctx, selected)
			if err != nil {
				fe.state = Failed
				return err
			}
			fe.gets[i].bytes = read
			fe.gets[i].flops = flops
			if err := fe.charge(ctx, flops); err != nil {
				fe.state = Failed
				return err
			}
			total += read
		}
		if fe.tracker != nil {
			fe.tracker.AddBytesSubscribed(fe.stream.Name, total)
		}
	}

	fe.currentTxnID++
	fe.state = Opened
	if fe.tracker != nil {
		fe.tracker.IncTransactionsCommitted(fe.stream.Name)
	}
	return nil
}

// charge schedules flops of simulated compute on this actor's host, a
// no-op when either the Variable carried no reduction or the caller
// opened this engine without a kernel handle.
func (fe *FileEngine) charge(ctx context.Context, flops float64) error {
	if flops <= 0 || fe.kernel == nil {
		return nil
	}
	if fe.tracker != nil {
		fe.tracker.AddFLOPs(fe.stream.Name, flops)
	}
	return fe.kernel.Charge(ctx, fe.host, flops)
}

func (fe *FileEngine) appendManifest() error {
	return fe.mdb.Update(func(tx *buntdb.Tx) error {
		for _, p := range fe.puts {
			entry := manifestEntry{
				Variable: p.v.Name,
				Shape:    p.v.Shape,
				ElemSize: p.v.ElementSize,
				Bytes:    p.bytes,
				Rank:     fe.rank,
			}
			raw, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			key := fmt.Sprintf("txn:%d:%s:%d", fe.currentTxnID, p.v.Name, fe.rank)
			if _, _, err := tx.Set(key, string(raw), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// totalCommittedTxns returns the Stream's shared commit count, which a
// subscriber engine resolves TransactionSelection against instead of
// its own per-engine counter (which starts at zero and is never a
// publisher's commit count). Tracked on the Stream, not in md.idx,
// because it must be available whether or not metadata_export is on.
func (fe *FileEngine) totalCommittedTxns() uint64 {
	return fe.stream.CommittedTxns()
}

// readSelectedBytes schedules a blocking read of n selected bytes from
// this engine's data file (spec.md §4.4/§4.6: get accounts for exactly
// selected_bytes, not the whole file), returning however many bytes
// were actually available.
func (fe *FileEngine) readSelectedBytes(ctx context.Context, n uint64) (uint64, error) {
	f, err := fe.fsys.OpenOrCreate(ctx, fe.zone, fe.fsName, fe.dataPath())
	if err != nil {
		return 0, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	return uint64(read), nil
}

// hasCommittedEntry reports whether the shared md.idx manifest holds
// at least one committed transaction's variable entry.
func (fe *FileEngine) hasCommittedEntry() (bool, error) {
	found := false
	err := fe.mdb.View(func(tx *buntdb.Tx) error {
		iterErr := tx.AscendKeys("txn:*", func(_, _ string) bool {
			found = true
			return false // stop at the first match
		})
		return iterErr
	})
	return found, err
}

// awaitFirstCommitted blocks the subscriber-side open until the shared
// md.idx manifest has at least one committed transaction's entry, per
// spec.md §4.4, polling it and yielding simulated time between checks.
func (fe *FileEngine) awaitFirstCommitted(ctx context.Context) error {
	for {
		found, err := fe.hasCommittedEntry()
		if err != nil {
			return err
		}
		if found {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if fe.kernel == nil {
			return cos.NewErrInconsistentVariableDefinition("", "no committed transactions to select from")
		}
		fe.kernel.SleepFor(manifestPollInterval)
	}
}

// Close drops this engine's reference to the shared md.idx manifest,
// closing it once every FileEngine opened against this URI has closed.
func (fe *FileEngine) Close(_ context.Context) error {
	fe.mtx.Lock()
	defer fe.mtx.Unlock()
	if err := requireState(fe.state, Opened); err != nil {
		return err
	}
	switch fe.mode {
	case Publish:
		fe.stream.DecPublishers()
	case Subscribe:
		fe.stream.DecSubscribers()
	}
	if fe.mdb != nil {
		if err := releaseManifest(fe.uri); err != nil {
			return err
		}
		fe.mdb = nil
	}
	fe.state = Closed
	return nil
}
