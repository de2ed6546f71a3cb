package logstore

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"LogDB/internal/domain"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-faker/faker/v4"
	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempDb(t *testing.T) (*Database, string) {
	path := filepath.Join(t.TempDir(), "example.db")

	db, err := Open(path, WithLogger(log.NewNopLogger()))
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db, path
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	db, path := createTempDb(t)

	assert.Equal(t, 0, db.Len())
	assert.Equal(t, int64(0), db.Size())
	assert.Equal(t, path, db.Path())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestPutGetDeleteScenario(t *testing.T) {
	db, _ := createTempDb(t)

	require.NoError(t, db.Put("key1", "value1"))
	require.NoError(t, db.Put("key2", "value2"))

	v, err := db.Get("key2")
	require.NoError(t, err)
	assert.Equal(t, "value2", v)

	v, err = db.Get("key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", v)

	require.NoError(t, db.Delete("key1"))

	_, err = db.Get("key1")
	assert.True(t, errors.Is(err, domain.ErrKeyNotFound))

	v, err = db.Get("key2")
	require.NoError(t, err)
	assert.Equal(t, "value2", v)
}

func TestReopenRecoversState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.db")

	db, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, db.Put("key1", "value1"))
	require.NoError(t, db.Put("key2", "value2"))
	require.NoError(t, db.Delete("key1"))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get("key2")
	require.NoError(t, err)
	assert.Equal(t, "value2", v)

	_, err = db.Get("key1")
	assert.True(t, errors.Is(err, domain.ErrKeyNotFound))
	assert.Equal(t, 1, db.Len())
}

func TestReopenAfterDeleteAndPutAgain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.db")

	db, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, db.Put("k", "first"))
	require.NoError(t, db.Delete("k"))
	require.NoError(t, db.Put("k", "second"))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestGetMissingKey(t *testing.T) {
	db, _ := createTempDb(t)

	_, err := db.Get("nonexistent")
	assert.True(t, errors.Is(err, domain.ErrKeyNotFound))
}

func TestOverwriteKeepsOneEntry(t *testing.T) {
	db, _ := createTempDb(t)

	require.NoError(t, db.Put("key1", "v1"))
	require.NoError(t, db.Put("key1", "v2"))

	v, err := db.Get("key1")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, db.Len())
}

func TestDeleteMissingKeyAppendsNothing(t *testing.T) {
	db, _ := createTempDb(t)

	require.NoError(t, db.Put("present", "v"))
	size := db.Size()

	err := db.Delete("nonexistent")
	assert.True(t, errors.Is(err, domain.ErrKeyNotFound))
	assert.Equal(t, size, db.Size())

	require.NoError(t, db.Delete("present"))
	size = db.Size()

	err = db.Delete("present")
	assert.True(t, errors.Is(err, domain.ErrKeyNotFound))
	assert.Equal(t, size, db.Size())
}

func TestPutEmptyKey(t *testing.T) {
	db, _ := createTempDb(t)

	err := db.Put("", "value")
	assert.True(t, errors.Is(err, domain.ErrEmptyKey))
	assert.Equal(t, int64(0), db.Size())
}

func TestPutEmptyValue(t *testing.T) {
	db, _ := createTempDb(t)

	require.NoError(t, db.Put("k", ""))

	v, err := db.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestLargeValue(t *testing.T) {
	db, path := createTempDb(t)

	large := strings.Repeat("x", 1000000)
	require.NoError(t, db.Put("large_key", large))

	v, err := db.Get("large_key")
	require.NoError(t, err)
	assert.Equal(t, large, v)

	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, err = db.Get("large_key")
	require.NoError(t, err)
	assert.Equal(t, len(large), len(v))
}

func TestOpenTruncatedLogFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Put("key1", "value1"))
	require.NoError(t, db.Put("key2", "value2"))
	require.NoError(t, db.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-3))

	db, err = Open(path)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.True(t, errors.Is(err, domain.ErrOpenFailed))
	assert.True(t, errors.Is(err, domain.ErrCorruptRecord))

	var oerr *OpenErr
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, path, oerr.Path)
}

func TestOpenChecksumMismatchFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Put("key1", "value1"))
	require.NoError(t, db.Put("key2", "value2"))
	require.NoError(t, db.Close())

	first := int64(HeaderSize + len("key1") + len("value1"))

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{'X'}, first+HeaderSize+1)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOpenFailed))

	var cerr *CorruptionErr
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, first, cerr.Offset)
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no", "such", "dir", "example.db"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOpenFailed))
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestGetDetectsCorruptionAfterOpen(t *testing.T) {
	db, path := createTempDb(t)

	require.NoError(t, db.Put("key1", "value1"))

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{'X'}, int64(HeaderSize+len("key1")))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = db.Get("key1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptRecord))
}

func TestGetDetectsIndexDivergence(t *testing.T) {
	db, _ := createTempDb(t)

	require.NoError(t, db.Put("key1", "value1"))
	require.NoError(t, db.Put("key2", "value2"))

	off, ok := db.index.Lookup("key1")
	require.True(t, ok)
	db.index.Set("key2", off)

	_, err := db.Get("key2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptRecord))
}

func TestOperationsAfterClose(t *testing.T) {
	db, _ := createTempDb(t)

	require.NoError(t, db.Put("k", "v"))
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err := db.Get("k")
	assert.Equal(t, ErrClosed, err)
	assert.Equal(t, ErrClosed, db.Put("k", "v"))
	assert.Equal(t, ErrClosed, db.Delete("k"))
}

func TestFailedAppendLeavesIndexUntouched(t *testing.T) {
	db, _ := createTempDb(t)

	require.NoError(t, db.Put("k", "v1"))
	before, ok := db.index.Lookup("k")
	require.True(t, ok)
	size := db.Size()

	fd := &failingSyncFile{File: db.log.fd.(*os.File), syncErr: errors.New("disk gone")}
	db.log.fd = fd

	err := db.Put("k", "v2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))

	err = db.Delete("k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))

	err = db.Put("other", "x")
	require.Error(t, err)

	after, ok := db.index.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, before, after)
	_, ok = db.index.Lookup("other")
	assert.False(t, ok)
	assert.Equal(t, size, db.Size())
	assert.Equal(t, 3.0, testutil.ToFloat64(db.metrics.appendsFailed))

	value, err := db.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", value)

	fd.syncErr = nil

	require.NoError(t, db.Put("other", "x"))
	value, err = db.Get("other")
	require.NoError(t, err)
	assert.Equal(t, "x", value)
}

func TestUnrecoverableAppendBreaksLog(t *testing.T) {
	db, _ := createTempDb(t)

	require.NoError(t, db.Put("k", "v1"))
	before, ok := db.index.Lookup("k")
	require.True(t, ok)

	require.NoError(t, db.log.fd.Close())

	err := db.Put("k", "v2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))

	after, ok := db.index.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, before, after)

	err = db.Put("new", "v")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLogBroken))
	assert.True(t, errors.Is(err, domain.ErrIO))

	_, ok = db.index.Lookup("new")
	assert.False(t, ok)
	assert.Equal(t, 1, db.Len())
}

func TestRecordsCarryClockTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "example.db")

	db, err := Open(path, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put("k", "v"))

	rec, err := db.readRecord(0)
	require.NoError(t, err)
	assert.Equal(t, now.UnixNano(), rec.Timestamp)
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	path := filepath.Join(t.TempDir(), "example.db")

	db, err := Open(path, WithRegisterer(registry))
	require.NoError(t, err)

	require.NoError(t, db.Put("a", "1"))
	require.NoError(t, db.Put("b", "2"))
	require.NoError(t, db.Delete("a"))
	_, _ = db.Get("a")
	_, _ = db.Get("b")

	assert.Equal(t, 2.0, testutil.ToFloat64(db.metrics.puts))
	assert.Equal(t, 1.0, testutil.ToFloat64(db.metrics.deletes))
	assert.Equal(t, 2.0, testutil.ToFloat64(db.metrics.gets))
	assert.Equal(t, 1.0, testutil.ToFloat64(db.metrics.getMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(db.metrics.liveKeys))
	assert.Equal(t, float64(db.Size()), testutil.ToFloat64(db.metrics.logSize))

	families, err := registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["logdb_storage_puts_total"])
	assert.True(t, names["logdb_storage_append_duration_seconds"])

	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 3.0, testutil.ToFloat64(reopened.metrics.recoveredRecords))
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	db, _ := createTempDb(t)

	const writers = 4
	const perWriter = 50

	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				key := fmt.Sprintf("key-%d-%d", w, i)
				assert.NoError(t, db.Put(key, strings.Repeat("v", i)))
			}
		}(w)
	}

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := db.Get(fmt.Sprintf("key-0-%d", i))
				if err != nil {
					assert.True(t, errors.Is(err, domain.ErrKeyNotFound), "unexpected error: %v", err)
				}
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, writers*perWriter, db.Len())

	v, err := db.Get("key-3-7")
	require.NoError(t, err)
	assert.Equal(t, "vvvvvvv", v)
}

// TestRandomWorkloadMatchesModel drives random puts and deletes against both the
// database and a plain map, then checks every key before and after a reopen.
func TestRandomWorkloadMatchesModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.db")
	rnd := rand.New(rand.NewSource(1))

	db, err := Open(path)
	require.NoError(t, err)

	model := map[string]string{}
	var keys []string
	for i := 0; i < 40; i++ {
		keys = append(keys, faker.Word())
	}

	for i := 0; i < 500; i++ {
		key := keys[rnd.Intn(len(keys))]

		if rnd.Intn(3) == 0 {
			err := db.Delete(key)
			if _, ok := model[key]; ok {
				require.NoError(t, err)
				delete(model, key)
			} else {
				require.True(t, errors.Is(err, domain.ErrKeyNotFound))
			}
			continue
		}

		value := faker.Sentence()
		require.NoError(t, db.Put(key, value))
		model[key] = value
	}

	check := func(db *Database) {
		assert.Equal(t, len(model), db.Len(), spew.Sdump(model))

		for _, key := range keys {
			v, err := db.Get(key)
			if expected, ok := model[key]; ok {
				require.NoError(t, err, "key %q", key)
				assert.Equal(t, expected, v, "key %q", key)
			} else {
				assert.True(t, errors.Is(err, domain.ErrKeyNotFound), "key %q: %v", key, err)
			}
		}
	}

	check(db)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	check(db)
}
