package logstore

// Index maps each live key to the offset of its most recent put record. It is
// derived state, rebuilt from the log on open, and is not safe for concurrent
// use on its own.
type Index struct {
	entries map[string]int64
}

func NewIndex() *Index {
	return &Index{
		entries: make(map[string]int64),
	}
}

func (i *Index) Lookup(key string) (int64, bool) {
	offset, ok := i.entries[key]
	return offset, ok
}

// Set records offset as the latest put for key. Callers pass offsets in log
// order, so a later call always wins.
func (i *Index) Set(key string, offset int64) {
	i.entries[key] = offset
}

func (i *Index) Remove(key string) {
	delete(i.entries, key)
}

func (i *Index) Clear() {
	clear(i.entries)
}

func (i *Index) Len() int {
	return len(i.entries)
}
