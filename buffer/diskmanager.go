package buffer

import (
	"context"

	"github.com/sharedcode/coredb"
)

// DiskManager is the disk sink required of the host: a block I/O collaborator
// the buffer pool manager reads from and writes to. Its behavior for a page id
// that was never written is undefined (the spec leaves this to the host).
type DiskManager interface {
	ReadPage(pageID PageID, buf []byte) error
	WritePage(pageID PageID, buf []byte) error
}

// LogSink is the optional log manager collaborator. It is out of scope for this
// module's durability story (no WAL, no recovery); it exists only so callers can
// observe buffer pool activity, mirroring the teacher's pattern of accepting an
// optional sink reference alongside the primary backend.
type LogSink interface {
	Log(ctx context.Context, op string, pageID PageID, correlationID coredb.UUID)
}
