// Package journal provides the append-only on-disk transport for ledger
// records: newline-delimited JSON, one UTF-8 object per line, partitioned
// into one directory per UTC calendar date under
//
//	<root>/controllog/<YYYY-MM-DD>/events.jsonl
//	<root>/controllog/<YYYY-MM-DD>/postings.jsonl
//
// Directories and files are created on demand. Each record is written with a
// single O_APPEND write, which is atomic on POSIX filesystems for writes of
// bounded size; safety under arbitrary concurrent multi-process writers
// depends on the host filesystem and is not otherwise coordinated.
package journal
