package ingest

// Progress receives notifications from the scheduler. All calls happen on the
// goroutine running the scheduler, in processing order.
type Progress interface {
	BatchStarted(batch int, files []string)
	FileStarted(path string)
	RowsInserted(n int)
	RowRejected(path string, line int, err error)
	BatchCommitted(batch int, files []string)
	// BatchRolledBack follows a failed group. Rows reported since its
	// BatchStarted were not committed.
	BatchRolledBack(batch int, files []string, err error)
}

// NopProgress discards every notification.
type NopProgress struct{}

func (NopProgress) BatchStarted(int, []string)           {}
func (NopProgress) FileStarted(string)                   {}
func (NopProgress) RowsInserted(int)                     {}
func (NopProgress) RowRejected(string, int, error)       {}
func (NopProgress) BatchCommitted(int, []string)         {}
func (NopProgress) BatchRolledBack(int, []string, error) {}

var _ Progress = NopProgress{}
