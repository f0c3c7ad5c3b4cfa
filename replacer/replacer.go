// Package replacer implements the LRU-K page replacement policy of O'Neil et al.:
// frames are classified by how many accesses they have recorded. Frames with fewer
// than k accesses are "cold" and tracked in a history list; frames with k or more
// accesses are "hot" and tracked in a cache list. Eviction prefers the oldest
// evictable cold frame, falling back to the oldest evictable hot frame.
package replacer

import (
	"fmt"
	"sync"

	"github.com/sharedcode/coredb"
)

// FrameID identifies a buffer pool frame. Frame 0 is reserved to mean "none";
// valid frame ids satisfy 1 <= id <= N where N is the replacer's capacity.
type FrameID int

// Replacer is the eviction-order oracle a buffer pool manager consults for victim
// selection and pinning hints.
type Replacer interface {
	// RecordAccess registers an access to frameID, updating its use count and its
	// history/cache list membership. It fails with coredb.Error{Code: coredb.InvalidFrame}
	// if frameID is out of range.
	RecordAccess(frameID FrameID) error
	// SetEvictable toggles whether frameID is a candidate for eviction. Frames
	// with a use count of zero are silently ignored.
	SetEvictable(frameID FrameID, evictable bool) error
	// Evict selects and removes a victim frame, clearing its history. It returns
	// false if no frame is currently evictable.
	Evict() (FrameID, bool)
	// Remove drops frameID from the replacer. The frame must already be
	// evictable; otherwise Remove is a no-op.
	Remove(frameID FrameID) error
	// Size returns the number of frames currently marked evictable.
	Size() int
}

type frameEntry struct {
	id        FrameID
	useCount  int
	evictable bool
}

// LRUKReplacer is the Replacer implementation described by spec: a single mutex
// guards all state, operations never suspend or perform I/O, and ties within a
// list are broken by insertion order (most recent at the front).
type LRUKReplacer struct {
	mu sync.Mutex

	n int // capacity: valid frame ids are in [1, n]
	k int

	frames []frameEntry // index 0 unused; frames[1..n] hold per-frame state

	history     *doublyLinkedList[FrameID]
	historyNode map[FrameID]*node[FrameID]

	cache     *doublyLinkedList[FrameID]
	cacheNode map[FrameID]*node[FrameID]

	currSize int
}

// New returns a replacer managing n frames (ids 1..n) with the given k.
func New(n, k int) *LRUKReplacer {
	return &LRUKReplacer{
		n:           n,
		k:           k,
		frames:      make([]frameEntry, n+1),
		history:     newDoublyLinkedList[FrameID](),
		historyNode: make(map[FrameID]*node[FrameID]),
		cache:       newDoublyLinkedList[FrameID](),
		cacheNode:   make(map[FrameID]*node[FrameID]),
	}
}

func (r *LRUKReplacer) checkFrame(frameID FrameID) error {
	if frameID < 1 || int(frameID) > r.n {
		return coredb.Error{
			Code:     coredb.InvalidFrame,
			Err:      fmt.Errorf("frame id %d out of range [1, %d]", frameID, r.n),
			UserData: frameID,
		}
	}
	return nil
}

// RecordAccess increments frameID's use count and maintains list membership: a
// frame reaching exactly k accesses is promoted from the history list to the
// front of the cache list; a frame beyond its k-th access is moved to the front
// of the cache list (move-to-front on every hot access); a frame below k
// accesses is pushed to the front of the history list the first time it is
// seen there.
func (r *LRUKReplacer) RecordAccess(frameID FrameID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFrame(frameID); err != nil {
		return err
	}

	f := &r.frames[frameID]
	f.id = frameID
	f.useCount++

	switch {
	case f.useCount == r.k:
		if n, ok := r.historyNode[frameID]; ok {
			r.history.delete(n)
			delete(r.historyNode, frameID)
		}
		r.cacheNode[frameID] = r.cache.addToHead(frameID)
	case f.useCount > r.k:
		if n, ok := r.cacheNode[frameID]; ok {
			r.cache.delete(n)
		}
		r.cacheNode[frameID] = r.cache.addToHead(frameID)
	default:
		if _, ok := r.historyNode[frameID]; !ok {
			r.historyNode[frameID] = r.history.addToHead(frameID)
		}
	}
	return nil
}

// SetEvictable marks frameID as evictable or not, adjusting Size accordingly.
// Frames that have never been accessed (use count 0) are ignored.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFrame(frameID); err != nil {
		return err
	}

	f := &r.frames[frameID]
	if f.useCount == 0 {
		return nil
	}

	if !f.evictable && evictable {
		r.currSize++
	} else if f.evictable && !evictable {
		r.currSize--
	}
	f.evictable = evictable
	return nil
}

// Evict scans the history list from back (oldest) to front for the first
// evictable frame; if none is found there, it scans the cache list the same
// way. The chosen frame is removed from its list and reset (use count and
// evictable flag cleared).
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.evictFrom(r.history, r.historyNode); ok {
		return id, true
	}
	return r.evictFrom(r.cache, r.cacheNode)
}

func (r *LRUKReplacer) evictFrom(list *doublyLinkedList[FrameID], nodes map[FrameID]*node[FrameID]) (FrameID, bool) {
	for n := list.back(); n != nil; n = n.prev {
		id := n.data
		if !r.frames[id].evictable {
			continue
		}
		list.delete(n)
		delete(nodes, id)
		r.frames[id].useCount = 0
		r.frames[id].evictable = false
		r.currSize--
		return id, true
	}
	return 0, false
}

// Remove drops frameID from whichever list it occupies. The frame must be
// evictable; otherwise Remove is a no-op, matching the precondition that only
// unpinned frames may be force-dropped from the replacer's bookkeeping.
func (r *LRUKReplacer) Remove(frameID FrameID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFrame(frameID); err != nil {
		return err
	}

	f := &r.frames[frameID]
	if !f.evictable {
		return nil
	}

	if f.useCount < r.k {
		if n, ok := r.historyNode[frameID]; ok {
			r.history.delete(n)
			delete(r.historyNode, frameID)
		}
	} else {
		if n, ok := r.cacheNode[frameID]; ok {
			r.cache.delete(n)
			delete(r.cacheNode, frameID)
		}
	}

	f.useCount = 0
	f.evictable = false
	r.currSize--
	return nil
}

// Size returns curr_size, the number of frames currently marked evictable.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}

var _ Replacer = (*LRUKReplacer)(nil)
