package buffer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sharedcode/coredb"
	"github.com/sharedcode/coredb/replacer"
)

// Config configures a BufferPoolManager: how many frames it owns, the disk
// sink backing it, the LRU-K replacer's k, and an optional page size and log
// sink.
type Config struct {
	PoolSize int
	Disk     DiskManager
	K        int
	// PageSize defaults to DefaultPageSize when zero.
	PageSize int
	// Log is an optional collaborator notified of buffer pool activity. It
	// carries no durability semantics; see LogSink.
	Log LogSink
}

// BufferPoolManager owns a fixed-size array of page frames, a page table
// mapping resident page ids to frame indices, and a free list of frames
// holding no page. Every public method is serialized by a single mutex that
// also covers the replacer and (when applicable) the disk sink call made
// while the mutex is held — a correctness-simplifying choice that trades
// throughput for invariant preservation.
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize int
	pageSize int
	disk     DiskManager
	logSink  LogSink
	replacer replacer.Replacer

	frames    []*frame
	pageTable map[PageID]int // page id -> frame index
	freeList  []int          // frame indices holding no page

	nextPageID PageID
}

// New returns a buffer pool manager per cfg. It panics if cfg is not usable
// (zero pool size or a nil disk sink): these are programmer errors, not
// runtime conditions a caller can recover from.
func New(cfg Config) *BufferPoolManager {
	if cfg.PoolSize <= 0 {
		panic("buffer: pool size must be positive")
	}
	if cfg.Disk == nil {
		panic("buffer: a disk sink is required")
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	bp := &BufferPoolManager{
		poolSize:  cfg.PoolSize,
		pageSize:  pageSize,
		disk:      cfg.Disk,
		logSink:   cfg.Log,
		replacer:  replacer.New(cfg.PoolSize, cfg.K),
		frames:    make([]*frame, cfg.PoolSize),
		pageTable: make(map[PageID]int, cfg.PoolSize),
		freeList:  make([]int, cfg.PoolSize),
	}
	for i := 0; i < cfg.PoolSize; i++ {
		bp.frames[i] = newFrame(pageSize)
		bp.freeList[i] = i
	}
	return bp
}

// replacerID and frameIndex translate between the pool's 0-based frame array
// index and the replacer's 1-based frame id space (frame id 0 is reserved to
// mean "none").
func replacerID(idx int) replacer.FrameID { return replacer.FrameID(idx + 1) }
func frameIndex(id replacer.FrameID) int  { return int(id) - 1 }

// selectVictimFrame picks a target frame for a new or fetched page: the free
// list first, then the replacer's victim. A dirty victim is flushed before
// reuse. It reports ok=false when no frame is available (PoolExhausted).
func (bp *BufferPoolManager) selectVictimFrame() (idx int, ok bool, err error) {
	if n := len(bp.freeList); n > 0 {
		idx = bp.freeList[n-1]
		bp.freeList = bp.freeList[:n-1]
		return idx, true, nil
	}

	rid, found := bp.replacer.Evict()
	if !found {
		return 0, false, nil
	}
	idx = frameIndex(rid)
	victim := bp.frames[idx]
	if victim.dirty {
		if werr := bp.disk.WritePage(victim.pageID, victim.data); werr != nil {
			return 0, false, coredb.Error{Code: coredb.IOError, Err: werr, UserData: victim.pageID}
		}
		victim.dirty = false
	}
	delete(bp.pageTable, victim.pageID)
	return idx, true, nil
}

// NewPage allocates a fresh page id and pins it in a frame, returning
// (InvalidPageID, nil, nil) if the pool is exhausted (no free or evictable frame).
func (bp *BufferPoolManager) NewPage(ctx context.Context) (PageID, *Frame, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	idx, ok, err := bp.selectVictimFrame()
	if err != nil {
		return InvalidPageID, nil, err
	}
	if !ok {
		slog.Warn("buffer pool exhausted on new_page")
		return InvalidPageID, nil, nil
	}

	pageID := bp.nextPageID
	bp.nextPageID++

	fr := bp.frames[idx]
	fr.reset()
	fr.pageID = pageID
	fr.pinCount = 1

	bp.pageTable[pageID] = idx
	rid := replacerID(idx)
	_ = bp.replacer.RecordAccess(rid)
	_ = bp.replacer.SetEvictable(rid, false)

	bp.notify(ctx, "new_page", pageID)
	return pageID, fr.snapshot(), nil
}

// FetchPage returns the requested page, pinned, reading it from the disk sink
// if it is not already resident. It returns nil,nil if the page is absent and
// the pool is exhausted.
func (bp *BufferPoolManager) FetchPage(ctx context.Context, pageID PageID) (*Frame, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if idx, ok := bp.pageTable[pageID]; ok {
		fr := bp.frames[idx]
		fr.pinCount++
		rid := replacerID(idx)
		_ = bp.replacer.RecordAccess(rid)
		_ = bp.replacer.SetEvictable(rid, false)
		bp.notify(ctx, "fetch_page_resident", pageID)
		return fr.snapshot(), nil
	}

	idx, ok, err := bp.selectVictimFrame()
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Warn("buffer pool exhausted on fetch_page", "page_id", pageID)
		return nil, nil
	}

	fr := bp.frames[idx]
	fr.reset()
	fr.pageID = pageID
	fr.pinCount = 1

	if rerr := bp.disk.ReadPage(pageID, fr.data); rerr != nil {
		// The pool makes no guarantee about consistency on I/O failure; return
		// the frame to the free list so it isn't leaked as an orphaned victim.
		fr.reset()
		bp.freeList = append(bp.freeList, idx)
		return nil, coredb.Error{Code: coredb.IOError, Err: rerr, UserData: pageID}
	}

	bp.pageTable[pageID] = idx
	rid := replacerID(idx)
	_ = bp.replacer.RecordAccess(rid)
	_ = bp.replacer.SetEvictable(rid, false)

	bp.notify(ctx, "fetch_page_from_disk", pageID)
	return fr.snapshot(), nil
}

// UnpinPage decrements pageID's pin count, marking its frame evictable once
// the count reaches zero. isDirty is OR-assigned onto the frame's dirty flag:
// once a frame is dirty, it stays dirty until a flush clears it, even if a
// later unpin passes isDirty=false. It returns false if pageID is invalid, not
// resident, or was not pinned.
func (bp *BufferPoolManager) UnpinPage(pageID PageID, isDirty bool) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if pageID == InvalidPageID {
		return false
	}
	idx, ok := bp.pageTable[pageID]
	if !ok {
		return false
	}

	fr := bp.frames[idx]
	fr.dirty = fr.dirty || isDirty
	if fr.pinCount <= 0 {
		return false
	}
	fr.pinCount--
	if fr.pinCount == 0 {
		_ = bp.replacer.SetEvictable(replacerID(idx), true)
	}
	return true
}

// FlushPage writes pageID's frame to the disk sink and clears its dirty flag,
// ignoring pin count. It returns false if pageID is invalid or not resident.
func (bp *BufferPoolManager) FlushPage(pageID PageID) (bool, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.flushLocked(pageID)
}

func (bp *BufferPoolManager) flushLocked(pageID PageID) (bool, error) {
	if pageID == InvalidPageID {
		return false, nil
	}
	idx, ok := bp.pageTable[pageID]
	if !ok {
		return false, nil
	}
	fr := bp.frames[idx]
	if err := bp.disk.WritePage(fr.pageID, fr.data); err != nil {
		return false, coredb.Error{Code: coredb.IOError, Err: err, UserData: pageID}
	}
	fr.dirty = false
	return true, nil
}

// FlushAllPages flushes every resident dirty frame.
func (bp *BufferPoolManager) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for pageID, idx := range bp.pageTable {
		fr := bp.frames[idx]
		if !fr.dirty {
			continue
		}
		if err := bp.disk.WritePage(fr.pageID, fr.data); err != nil {
			return coredb.Error{Code: coredb.IOError, Err: err, UserData: pageID}
		}
		fr.dirty = false
	}
	return nil
}

// DeletePage removes pageID from the pool: if it is not resident, DeletePage
// succeeds as a no-op. If it is pinned, DeletePage fails. Otherwise, any dirty
// data is flushed, the frame is reset and returned to the free list (by frame
// index, not page id), the replacer forgets the frame, and the page id
// allocator is not reused. It returns true on success, including the no-op
// case, and false only when the page is resident and pinned.
func (bp *BufferPoolManager) DeletePage(pageID PageID) (bool, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	idx, ok := bp.pageTable[pageID]
	if !ok {
		return true, nil
	}
	fr := bp.frames[idx]
	if fr.pinCount != 0 {
		return false, nil
	}
	if fr.dirty {
		if err := bp.disk.WritePage(fr.pageID, fr.data); err != nil {
			return false, coredb.Error{Code: coredb.IOError, Err: err, UserData: pageID}
		}
		fr.dirty = false
	}

	fr.reset()
	delete(bp.pageTable, pageID)
	_ = bp.replacer.Remove(replacerID(idx))
	bp.freeList = append(bp.freeList, idx)
	return true, nil
}

// Stats is a point-in-time snapshot of pool occupancy, useful for operational
// visibility; it performs no I/O.
type Stats struct {
	PoolSize      int
	FreeCount     int
	ResidentCount int
	NextPageID    PageID
}

// Stats returns a snapshot of the pool's current occupancy.
func (bp *BufferPoolManager) Stats() Stats {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return Stats{
		PoolSize:      bp.poolSize,
		FreeCount:     len(bp.freeList),
		ResidentCount: len(bp.pageTable),
		NextPageID:    bp.nextPageID,
	}
}

func (bp *BufferPoolManager) notify(ctx context.Context, op string, pageID PageID) {
	id := coredb.NewUUID()
	slog.Debug("buffer pool operation", "op", op, "page_id", pageID, "correlation_id", id.String())
	if bp.logSink != nil {
		bp.logSink.Log(ctx, op, pageID, id)
	}
}
