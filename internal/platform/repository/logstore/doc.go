// Package logstore implements a single-file, log-structured key-value engine.
//
// The file is the database: a sequence of records appended in write order,
// with no header, footer or separate index file. Each record is either a put
// (key and value) or a tombstone (key only). An in-memory index maps every live
// key to the offset of its latest put record and is rebuilt by scanning the
// file on open:
//
//	Write path: Encode -> LogFile.Append (write + fsync) -> Index.Set / Index.Remove
//	Read path:  Index.Lookup -> LogFile.ReadAt -> Decode
//	Open:       LogFile.Scan -> Decode -> replay into a cleared Index
//
// A record that fails to decode during open aborts the open; trailing garbage
// is never skipped or truncated away.
package logstore
