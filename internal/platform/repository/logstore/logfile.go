package logstore

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// file is the subset of *os.File a LogFile uses.
type file interface {
	io.Writer
	io.ReaderAt
	io.Closer
	Sync() error
	Truncate(size int64) error
}

// LogFile is an append-only byte store backed by a single file.
type LogFile struct {
	mu     sync.Mutex
	fd     file
	path   string
	size   int64
	broken bool
}

func OpenLogFile(path string) (*LogFile, error) {
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)

	if err != nil {
		return nil, ioError("open", path, err)
	}

	info, err := fd.Stat()

	if err != nil {
		fd.Close()
		return nil, ioError("stat", path, err)
	}

	return &LogFile{
		fd:   fd,
		path: path,
		size: info.Size(),
	}, nil
}

// Append writes b at the end of the file and syncs it to stable storage. The
// returned offset is where b begins. A failed append is rolled back by
// truncating to the previous length.
func (l *LogFile) Append(b []byte) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fd == nil {
		return 0, ioError("append", l.path, os.ErrClosed)
	}

	if l.broken {
		return 0, ioError("append", l.path, ErrLogBroken)
	}

	offset := l.size

	n, err := l.fd.Write(b)

	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}

	if err == nil {
		err = l.fd.Sync()
	}

	if err != nil {
		if terr := l.fd.Truncate(offset); terr != nil {
			l.broken = true
			return 0, ioError("append", l.path, errors.Wrapf(err, "rollback failed (%s)", terr))
		}

		return 0, ioError("append", l.path, err)
	}

	l.size += int64(n)

	return offset, nil
}

// ReadAt returns up to maxLen bytes starting at offset.
func (l *LogFile) ReadAt(offset int64, maxLen int) ([]byte, error) {
	l.mu.Lock()
	fd, size := l.fd, l.size
	l.mu.Unlock()

	if fd == nil {
		return nil, ioError("read", l.path, os.ErrClosed)
	}

	if offset < 0 || offset > size {
		return nil, ioError("read", l.path, errors.Errorf("offset %d beyond file length %d", offset, size))
	}

	if rest := size - offset; int64(maxLen) > rest {
		maxLen = int(rest)
	}

	buf := make([]byte, maxLen)

	n, err := fd.ReadAt(buf, offset)

	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ioError("read", l.path, err)
	}

	return buf[:n], nil
}

// Scan returns a Scanner over every record in the file, in file order.
func (l *LogFile) Scan() *Scanner {
	size := l.Size()

	return &Scanner{
		reader: bufio.NewReaderSize(io.NewSectionReader(l.fd, 0, size), 64*1024),
		size:   size,
		path:   l.path,
	}
}

func (l *LogFile) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.size
}

func (l *LogFile) Path() string {
	return l.path
}

func (l *LogFile) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fd == nil {
		return nil
	}

	if err := l.fd.Sync(); err != nil {
		return ioError("sync", l.path, err)
	}

	return nil
}

func (l *LogFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// fd is nil once Close has run.
	if l.fd == nil {
		return nil
	}

	err := l.fd.Close()
	l.fd = nil

	if err != nil {
		return ioError("close", l.path, err)
	}

	return nil
}

// Scanner walks the raw records of a log file once, from offset 0 to the
// length the file had when the scan started.
type Scanner struct {
	reader *bufio.Reader
	size   int64
	path   string

	offset int64
	next   int64
	rec    []byte
	err    error
}

// Next advances to the next record. It returns false at the end of the file or
// on the first error; Err distinguishes the two.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}

	s.offset = s.next

	if s.offset == s.size {
		s.rec = nil
		return false
	}

	hdr := make([]byte, HeaderSize)

	if n, err := io.ReadFull(s.reader, hdr); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			s.err = corruption(s.offset, errors.Errorf("torn header: %d of %d bytes", n, HeaderSize))
		} else {
			s.err = ioError("scan", s.path, err)
		}
		return false
	}

	size := RecordSize(hdr)

	if s.offset+size > s.size {
		s.err = corruption(s.offset, errors.Errorf("declared size %d runs past end of file at %d", size, s.size))
		return false
	}

	rec := make([]byte, size)
	copy(rec, hdr)

	if _, err := io.ReadFull(s.reader, rec[HeaderSize:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			s.err = corruption(s.offset, errors.New("torn record body"))
		} else {
			s.err = ioError("scan", s.path, err)
		}
		return false
	}

	s.rec = rec
	s.next = s.offset + size

	return true
}

// Record returns the raw bytes of the current record.
func (s *Scanner) Record() []byte {
	return s.rec
}

// Offset returns the offset at which the current record begins.
func (s *Scanner) Offset() int64 {
	return s.offset
}

func (s *Scanner) Err() error {
	return s.err
}
