package logstore

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/pkg/errors"
)

// Record layout, little endian:
//
//	| crc32c (4) | timestamp (8) | kind (1) | key size (4) | value size (4) | key | value |
//
// The checksum covers every byte after the checksum field. Tombstones carry a
// zero value size and no value bytes.
const (
	HeaderSize = 21

	crcOffset       = 0
	timestampOffset = 4
	kindOffset      = 12
	keySizeOffset   = 13
	valueSizeOffset = 17
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

type Kind uint8

const (
	KindPut       Kind = 1
	KindTombstone Kind = 2
)

func (k Kind) valid() bool {
	return k == KindPut || k == KindTombstone
}

func (k Kind) String() string {
	switch k {
	case KindPut:
		return "put"
	case KindTombstone:
		return "tombstone"
	default:
		return "unknown"
	}
}

type Record struct {
	Kind      Kind
	Key       []byte
	Value     []byte
	Timestamp int64
}

func NewPutRecord(key, value []byte, timestamp int64) Record {
	return Record{Kind: KindPut, Key: key, Value: value, Timestamp: timestamp}
}

func NewTombstoneRecord(key []byte, timestamp int64) Record {
	return Record{Kind: KindTombstone, Key: key, Timestamp: timestamp}
}

// Size returns the number of bytes Encode produces for the record.
func (r *Record) Size() int64 {
	return HeaderSize + int64(len(r.Key)) + int64(len(r.Value))
}

// Encode serializes a well-formed record.
func Encode(rec Record) ([]byte, error) {
	if len(rec.Key) == 0 {
		return nil, errors.New("record key is empty")
	}

	if !rec.Kind.valid() {
		return nil, errors.Errorf("unknown record kind %d", rec.Kind)
	}

	if rec.Kind == KindTombstone && len(rec.Value) > 0 {
		return nil, errors.New("tombstone record carries a value")
	}

	if uint64(len(rec.Key)) > math.MaxUint32 || uint64(len(rec.Value)) > math.MaxUint32 {
		return nil, errors.Errorf("record too large: key %d bytes, value %d bytes", len(rec.Key), len(rec.Value))
	}

	buf := make([]byte, rec.Size())
	binary.LittleEndian.PutUint64(buf[timestampOffset:], uint64(rec.Timestamp))
	buf[kindOffset] = byte(rec.Kind)
	binary.LittleEndian.PutUint32(buf[keySizeOffset:], uint32(len(rec.Key)))
	binary.LittleEndian.PutUint32(buf[valueSizeOffset:], uint32(len(rec.Value)))
	copy(buf[HeaderSize:], rec.Key)
	copy(buf[HeaderSize+len(rec.Key):], rec.Value)

	binary.LittleEndian.PutUint32(buf[crcOffset:], crc32.Checksum(buf[timestampOffset:], castagnoliTable))

	return buf, nil
}

// RecordSize returns the total size of the record whose header is hdr.
// hdr must hold at least HeaderSize bytes.
func RecordSize(hdr []byte) int64 {
	keySize := binary.LittleEndian.Uint32(hdr[keySizeOffset:])
	valueSize := binary.LittleEndian.Uint32(hdr[valueSizeOffset:])

	return HeaderSize + int64(keySize) + int64(valueSize)
}

// Decode reads exactly one record starting at offset within buf and returns it
// together with the offset of the byte following it. The returned key and value
// do not alias buf.
func Decode(buf []byte, offset int64) (Record, int64, error) {
	if offset < 0 || offset > int64(len(buf)) {
		return Record{}, offset, corruption(offset, errors.Errorf("offset outside of %d available bytes", len(buf)))
	}

	data := buf[offset:]

	if len(data) < HeaderSize {
		return Record{}, offset, corruption(offset, errors.Errorf("short header: %d of %d bytes", len(data), HeaderSize))
	}

	var (
		crc       = binary.LittleEndian.Uint32(data[crcOffset:])
		timestamp = int64(binary.LittleEndian.Uint64(data[timestampOffset:]))
		kind      = Kind(data[kindOffset])
		keySize   = binary.LittleEndian.Uint32(data[keySizeOffset:])
		valueSize = binary.LittleEndian.Uint32(data[valueSizeOffset:])
	)

	if !kind.valid() {
		return Record{}, offset, corruption(offset, errors.Errorf("unknown record kind %d", kind))
	}

	size := RecordSize(data)

	if size > int64(len(data)) {
		return Record{}, offset, corruption(offset, errors.Errorf("declared size %d exceeds %d available bytes", size, len(data)))
	}

	if keySize == 0 {
		return Record{}, offset, corruption(offset, errors.New("empty key"))
	}

	if kind == KindTombstone && valueSize != 0 {
		return Record{}, offset, corruption(offset, errors.Errorf("tombstone declares %d value bytes", valueSize))
	}

	if c := crc32.Checksum(data[timestampOffset:size], castagnoliTable); c != crc {
		return Record{}, offset, corruption(offset, errors.Errorf("invalid checksum: expected %d, got %d", crc, c))
	}

	keyEnd := HeaderSize + int64(keySize)

	rec := Record{
		Kind:      kind,
		Key:       append([]byte(nil), data[HeaderSize:keyEnd]...),
		Timestamp: timestamp,
	}

	if kind == KindPut {
		rec.Value = append([]byte{}, data[keyEnd:size]...)
	}

	return rec, offset + size, nil
}
