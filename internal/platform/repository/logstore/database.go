package logstore

import (
	"bytes"
	"sync"
	"time"

	"LogDB/internal/domain"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Database is a single-file key-value store. Every mutation is appended to the
// log and synced before the index is updated, so the index only ever points at
// durable records and can always be rebuilt by rescanning the log.
type Database struct {
	logger  log.Logger
	metrics *Metrics
	clock   func() time.Time

	mu     sync.RWMutex
	log    *LogFile
	index  *Index
	closed bool
}

// Open opens or creates the log at path and rebuilds the index from it. A log
// that cannot be read or holds a corrupt record yields an *OpenErr and no
// handle.
func Open(path string, opts ...Option) (*Database, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var registerer prometheus.Registerer
	if o.registerer != nil {
		registerer = prometheus.WrapRegistererWithPrefix("logdb_storage_", o.registerer)
	}

	lf, err := OpenLogFile(path)

	if err != nil {
		return nil, &OpenErr{Path: path, Err: err}
	}

	db := &Database{
		logger:  log.With(o.logger, "component", "logstore", "path", path),
		metrics: NewMetrics(registerer),
		clock:   o.clock,
		log:     lf,
		index:   NewIndex(),
	}

	start := time.Now()
	replayed, err := db.rebuildIndex()

	if err != nil {
		level.Error(db.logger).Log("msg", "error rebuilding index", "err", err)

		if cerr := lf.Close(); cerr != nil {
			level.Error(db.logger).Log("msg", "error closing log after failed open", "err", cerr)
		}

		return nil, &OpenErr{Path: path, Err: err}
	}

	level.Info(db.logger).Log(
		"msg", "database opened",
		"records", replayed,
		"keys", db.index.Len(),
		"bytes", lf.Size(),
		"duration", time.Since(start),
	)

	return db, nil
}

// rebuildIndex replays the log in file order: puts set the key's offset,
// tombstones remove the key.
func (db *Database) rebuildIndex() (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.index.Clear()

	scanner := db.log.Scan()
	replayed := 0

	for scanner.Next() {
		offset := scanner.Offset()

		rec, _, err := Decode(scanner.Record(), 0)

		if err != nil {
			var cerr *CorruptionErr
			if errors.As(err, &cerr) {
				cerr.Offset += offset
			}
			return replayed, err
		}

		switch rec.Kind {
		case KindPut:
			db.index.Set(string(rec.Key), offset)
		case KindTombstone:
			db.index.Remove(string(rec.Key))
		}

		replayed++
	}

	if err := scanner.Err(); err != nil {
		return replayed, err
	}

	db.metrics.recoveredRecords.Add(float64(replayed))
	db.updateGauges()

	return replayed, nil
}

// Get returns the live value of key, or domain.ErrKeyNotFound.
func (db *Database) Get(key string) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return "", ErrClosed
	}

	db.metrics.gets.Inc()

	offset, ok := db.index.Lookup(key)

	if !ok {
		db.metrics.getMisses.Inc()
		return "", domain.ErrKeyNotFound
	}

	rec, err := db.readRecord(offset)

	if err != nil {
		return "", errors.Wrapf(err, "get %q", key)
	}

	if rec.Kind != KindPut || !bytes.Equal(rec.Key, []byte(key)) {
		err := corruption(offset, errors.Errorf("index entry for %q points at %s record for %q", key, rec.Kind, rec.Key))
		level.Error(db.logger).Log("msg", "index and log diverged", "key", key, "offset", offset, "err", err)
		return "", err
	}

	return string(rec.Value), nil
}

func (db *Database) readRecord(offset int64) (Record, error) {
	hdr, err := db.log.ReadAt(offset, HeaderSize)

	if err != nil {
		return Record{}, err
	}

	if len(hdr) < HeaderSize {
		return Record{}, corruption(offset, errors.Errorf("short header: %d of %d bytes", len(hdr), HeaderSize))
	}

	size := RecordSize(hdr)

	if offset+size > db.log.Size() {
		return Record{}, corruption(offset, errors.Errorf("declared size %d runs past end of log", size))
	}

	buf, err := db.log.ReadAt(offset, int(size))

	if err != nil {
		return Record{}, err
	}

	rec, _, err := Decode(buf, 0)

	if err != nil {
		var cerr *CorruptionErr
		if errors.As(err, &cerr) {
			cerr.Offset = offset
		}
		return Record{}, err
	}

	return rec, nil
}

// Put stores value under key, replacing any previous value.
func (db *Database) Put(key, value string) error {
	if key == "" {
		return domain.ErrEmptyKey
	}

	rec := NewPutRecord([]byte(key), []byte(value), db.clock().UnixNano())

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}

	offset, err := db.append(rec)

	if err != nil {
		return errors.Wrapf(err, "put %q", key)
	}

	db.index.Set(key, offset)
	db.metrics.puts.Inc()
	db.updateGauges()

	return nil
}

// Delete appends a tombstone for key. Deleting a key with no live value fails
// with domain.ErrKeyNotFound and appends nothing.
func (db *Database) Delete(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}

	if _, ok := db.index.Lookup(key); !ok {
		return domain.ErrKeyNotFound
	}

	rec := NewTombstoneRecord([]byte(key), db.clock().UnixNano())

	if _, err := db.append(rec); err != nil {
		return errors.Wrapf(err, "delete %q", key)
	}

	db.index.Remove(key)
	db.metrics.deletes.Inc()
	db.updateGauges()

	return nil
}

// append is the durable half of a mutation; callers hold mu and update the
// index only after it returns without error.
func (db *Database) append(rec Record) (int64, error) {
	b, err := Encode(rec)

	if err != nil {
		return 0, err
	}

	start := time.Now()
	offset, err := db.log.Append(b)
	db.metrics.appendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		db.metrics.appendsFailed.Inc()
		level.Error(db.logger).Log("msg", "error appending record", "kind", rec.Kind, "err", err)
		return 0, err
	}

	return offset, nil
}

func (db *Database) updateGauges() {
	db.metrics.liveKeys.Set(float64(db.index.Len()))
	db.metrics.logSize.Set(float64(db.log.Size()))
}

// Len returns the number of live keys.
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.index.Len()
}

// Size returns the size of the log in bytes.
func (db *Database) Size() int64 {
	return db.log.Size()
}

func (db *Database) Path() string {
	return db.log.Path()
}

// Close syncs and releases the log file. Closing twice is a no-op.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}

	db.closed = true

	if err := db.log.Sync(); err != nil {
		level.Error(db.logger).Log("msg", "error syncing log on close", "err", err)
		db.log.Close()
		return err
	}

	if err := db.log.Close(); err != nil {
		return err
	}

	level.Info(db.logger).Log("msg", "database closed")

	return nil
}
