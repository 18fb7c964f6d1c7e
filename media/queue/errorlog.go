package queue

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/leeforge/imgresize/errors"
	"github.com/leeforge/imgresize/media/storage"
)

// ErrorLogName is the per-batch failure log written into the output directory.
const ErrorLogName = "gnn_image_resize_errors.log"

// Entry is one failed item.
type Entry struct {
	Index int
	Total int
	Path  string
	Err   error
}

// String renders the entry as
//
//	[{index}/{total}] {path} -> {message}
//	{trace lines}
//
// followed by a blank separator line.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d/%d] %s -> %v\n", e.Index, e.Total, e.Path, e.Err)
	if trace := apperrors.StackText(e.Err); trace != "" {
		b.WriteString(trace)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

// ErrorLog appends failure entries to ErrorLogName. Every method is best-effort
// and reports success instead of returning an error.
type ErrorLog struct {
	store *storage.LocalProvider
}

func NewErrorLog(store *storage.LocalProvider) *ErrorLog {
	return &ErrorLog{store: store}
}

// Path returns the location of the log file.
func (l *ErrorLog) Path() string {
	return l.store.Path(ErrorLogName)
}

// Reset removes a log left over from a previous batch.
func (l *ErrorLog) Reset(ctx context.Context) bool {
	return l.store.Delete(ctx, ErrorLogName) == nil
}

// Append writes e to the end of the log.
func (l *ErrorLog) Append(e Entry) bool {
	return l.store.Append(ErrorLogName, []byte(e.String())) == nil
}
