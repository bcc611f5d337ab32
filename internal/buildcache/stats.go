package buildcache

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats summarizes a cache's contents for a human-readable log line,
// the way the teacher's reporting package renders byte counts with
// go-humanize rather than raw integers.
type Stats struct {
	Entries   int
	TotalSize int64
}

// Summarize collects row count and total stored IR size from db. The
// LENGTH() aggregate used here is sqlite/mysql/postgres syntax; against
// a sqlserver:-backed Store (which spells it LEN) this returns a query
// error — sqlserver: is meant for a shared team cache, not for local
// stats reporting.
func Summarize(s Store) (Stats, error) {
	store, ok := s.(*sqlStore)
	if !ok {
		return Stats{}, nil
	}

	var stats Stats
	row := store.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(LENGTH(llvm_ir)), 0) FROM cache_entries`)
	if err := row.Scan(&stats.Entries, &stats.TotalSize); err != nil {
		return Stats{}, fmt.Errorf("buildcache: stats: %w", err)
	}
	return stats, nil
}

// String renders Stats the way a log line reports cache size: entry
// count plus a human-readable byte size.
func (s Stats) String() string {
	return fmt.Sprintf("%d entries, %s", s.Entries, humanize.Bytes(uint64(s.TotalSize)))
}
