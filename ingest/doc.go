// Package ingest loads AddressBase Premium CSV volumes into a bootstrapped
// SQLite store and resumes after interruption.
//
// # Flow
//
//  1. [NextIndex] reads the highest next_volume_index from the trailer table.
//     An empty table means start at file 1, 0 means the set is complete.
//  2. [ListCSV] lists the .csv files of the data directory in lexicographic
//     order and [Pending] drops the first index-1 of them.
//  3. [PrepareCache] builds one INSERT per table from table_info and
//     column_info. The cache is built once and never modified.
//  4. [Scheduler] commits the pending files in groups of
//     Options.FilesPerTransaction, one transaction per group. A failure rolls
//     back the current group only.
//
// # Resume point
//
// The loader never writes the trailer. Each volume ends with a trailer row
// (record identifier 99) carrying the index of the next volume, and that row
// is committed together with the rest of its group. The resume point is
// therefore exactly as durable as the data. Writing the marker from the
// loader would change which files a rerun skips.
//
// # Errors
//
// Errors match one of [ErrBadInput], [ErrMissingSchema], [ErrParse],
// [ErrCacheMiss] or [ErrStore] with errors.Is, and [ErrInterrupted] or
// [ErrStalled] when the run context is cancelled. Row failures are wrapped
// in a [*RowError]. Any error aborts the in-flight group unless
// Options.LogErrors is set, in which case row level failures are written to
// [ErrorLogTable] and the group carries on.
package ingest
