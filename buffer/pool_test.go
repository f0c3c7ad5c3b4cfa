package buffer

import (
	"context"
	"testing"
)

func newTestPool(t *testing.T, poolSize, k int) (*BufferPoolManager, *MemDiskManager) {
	t.Helper()
	disk := NewMemDiskManager(DefaultPageSize)
	return New(Config{PoolSize: poolSize, Disk: disk, K: k}), disk
}

func TestFetchEvictScenario(t *testing.T) {
	ctx := context.Background()
	bp, _ := newTestPool(t, 2, 2)

	id0, fr0, err := bp.NewPage(ctx)
	if err != nil || fr0 == nil || id0 != 0 {
		t.Fatalf("NewPage#1 = (%v, %v, %v), want (0, non-nil, nil)", id0, fr0, err)
	}
	id1, fr1, err := bp.NewPage(ctx)
	if err != nil || fr1 == nil || id1 != 1 {
		t.Fatalf("NewPage#2 = (%v, %v, %v), want (1, non-nil, nil)", id1, fr1, err)
	}

	if _, fr2, err := bp.NewPage(ctx); err != nil || fr2 != nil {
		t.Fatalf("NewPage#3 on a full, all-pinned pool = (%v, %v), want (nil, nil)", fr2, err)
	}

	if ok := bp.UnpinPage(id0, false); !ok {
		t.Fatalf("UnpinPage(%v, false) = false, want true", id0)
	}

	id2, fr3, err := bp.NewPage(ctx)
	if err != nil || fr3 == nil {
		t.Fatalf("NewPage#4 after unpin = (%v, %v, %v), want a usable frame", id2, fr3, err)
	}
	if id2 != 2 {
		t.Fatalf("NewPage#4 page id = %v, want 2", id2)
	}

	stats := bp.Stats()
	if stats.ResidentCount != 2 {
		t.Fatalf("Stats().ResidentCount = %d, want 2 (page 0 was evicted to make room)", stats.ResidentCount)
	}
	if _, ok := bp.pageTable[id0]; ok {
		t.Fatalf("page %v should have been evicted from the page table", id0)
	}
}

func TestDirtyEvictionFlushesToDisk(t *testing.T) {
	ctx := context.Background()
	bp, disk := newTestPool(t, 2, 2)

	id0, fr0, _ := bp.NewPage(ctx)
	fr0.Data[0] = 0x42
	bp.NewPage(ctx)
	bp.UnpinPage(id0, true)

	if disk.Writes[id0] != 0 {
		t.Fatalf("page %v written to disk before eviction", id0)
	}

	if _, _, err := bp.NewPage(ctx); err != nil {
		t.Fatalf("NewPage after dirty unpin failed: %v", err)
	}

	if disk.Writes[id0] != 1 {
		t.Fatalf("disk.Writes[%v] = %d, want 1 (dirty victim must be flushed before reuse)", id0, disk.Writes[id0])
	}
}

func TestDeleteReclaimsFrame(t *testing.T) {
	ctx := context.Background()
	bp, _ := newTestPool(t, 2, 2)

	id, fr, err := bp.NewPage(ctx)
	if err != nil || fr == nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	if ok := bp.UnpinPage(id, false); !ok {
		t.Fatalf("UnpinPage failed")
	}

	ok, err := bp.DeletePage(id)
	if err != nil || !ok {
		t.Fatalf("DeletePage(%v) = (%v, %v), want (true, nil)", id, ok, err)
	}

	if _, resident := bp.pageTable[id]; resident {
		t.Fatalf("page %v still in the page table after delete", id)
	}
	stats := bp.Stats()
	if stats.FreeCount != stats.PoolSize {
		t.Fatalf("Stats().FreeCount = %d, want %d (frame returned to free list)", stats.FreeCount, stats.PoolSize)
	}
}

func TestDeletePinnedPageFails(t *testing.T) {
	ctx := context.Background()
	bp, _ := newTestPool(t, 1, 2)
	id, _, _ := bp.NewPage(ctx)

	ok, err := bp.DeletePage(id)
	if err != nil || ok {
		t.Fatalf("DeletePage of a pinned page = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestDeleteNonResidentPageSucceeds(t *testing.T) {
	bp, _ := newTestPool(t, 1, 2)
	ok, err := bp.DeletePage(PageID(99))
	if err != nil || !ok {
		t.Fatalf("DeletePage of a non-resident page = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestUnpinInvalidOrNonResidentFails(t *testing.T) {
	bp, _ := newTestPool(t, 1, 2)
	if bp.UnpinPage(InvalidPageID, false) {
		t.Fatalf("UnpinPage(InvalidPageID) = true, want false")
	}
	if bp.UnpinPage(PageID(7), false) {
		t.Fatalf("UnpinPage(non-resident) = true, want false")
	}
}

func TestFlushPageClearsDirty(t *testing.T) {
	ctx := context.Background()
	bp, disk := newTestPool(t, 1, 2)
	id, fr, _ := bp.NewPage(ctx)
	fr.Data[0] = 7
	bp.UnpinPage(id, true)

	ok, err := bp.FlushPage(id)
	if err != nil || !ok {
		t.Fatalf("FlushPage = (%v, %v), want (true, nil)", ok, err)
	}
	if disk.Writes[id] != 1 {
		t.Fatalf("disk.Writes[%v] = %d, want 1", id, disk.Writes[id])
	}

	idx := bp.pageTable[id]
	if bp.frames[idx].dirty {
		t.Fatalf("frame still marked dirty after flush")
	}
}

func TestDirtyStaysDirtyAcrossFalseUnpin(t *testing.T) {
	ctx := context.Background()
	bp, _ := newTestPool(t, 1, 2)
	id, _, _ := bp.NewPage(ctx)

	// Fetch again (pin count 2), mark dirty, then unpin once with isDirty=false.
	bp.FetchPage(ctx, id)
	bp.UnpinPage(id, true)
	bp.UnpinPage(id, false)

	idx := bp.pageTable[id]
	if !bp.frames[idx].dirty {
		t.Fatalf("dirty flag was cleared by a later isDirty=false unpin; dirty must be monotonic until flush")
	}
}

func TestFetchNonResidentWhenAllPinnedReturnsNil(t *testing.T) {
	ctx := context.Background()
	bp, _ := newTestPool(t, 2, 2)
	bp.NewPage(ctx)
	bp.NewPage(ctx)

	fr, err := bp.FetchPage(ctx, PageID(55))
	if err != nil || fr != nil {
		t.Fatalf("FetchPage with no evictable frame = (%v, %v), want (nil, nil)", fr, err)
	}
}

func TestResidentPageTableAgreesWithFrame(t *testing.T) {
	ctx := context.Background()
	bp, _ := newTestPool(t, 4, 2)
	for i := 0; i < 3; i++ {
		bp.NewPage(ctx)
	}
	for pageID, idx := range bp.pageTable {
		if bp.frames[idx].pageID != pageID {
			t.Fatalf("frame %d holds page %v, page table says %v", idx, bp.frames[idx].pageID, pageID)
		}
	}
}
