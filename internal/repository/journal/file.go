package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/afero"

	"github.com/oshokin/rtc-alarm/internal/config"
)

// Repository defines persistence operations for the journal.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	Load(ctx context.Context, filter Filter) ([]Entry, error)
}

var (
	// ErrNotFound is returned when the journal file does not exist yet.
	ErrNotFound = errors.New("journal not found")
	// ErrClosed is returned when appending to a closed repository.
	ErrClosed = errors.New("journal is closed")
)

// FileRepository appends entries to a CBOR file.
// It is safe for concurrent use.
type FileRepository struct {
	// fs is the filesystem holding the journal.
	fs afero.Fs
	// path is the location of the journal file.
	path string
	// file is the journal opened for appending.
	file afero.File
	// encoder writes entries to file.
	encoder *cbor.Encoder
	// closed is set by Close.
	closed bool
	// mu serializes writes and Close.
	mu sync.Mutex
}

// Compile-time interface satisfaction check.
var _ Repository = (*FileRepository)(nil)

// NewFileRepository opens the journal at path for appending, creating it if needed.
func NewFileRepository(fs afero.Fs, path string) (*FileRepository, error) {
	path = filepath.Clean(path)

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	f, err := fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &FileRepository{
		fs:      fs,
		path:    path,
		file:    f,
		encoder: newEncoder(f),
	}, nil
}

// Path returns the journal location.
func (r *FileRepository) Path() string {
	return r.path
}

// Append writes one entry.
func (r *FileRepository) Append(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	if err := r.encoder.Encode(entry); err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}

	return nil
}

// Load reads every entry matching filter.
func (r *FileRepository) Load(ctx context.Context, filter Filter) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return ReadAll(ctx, r.fs, r.path, filter)
}

// Close closes the journal. It is safe to call Close multiple times.
func (r *FileRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	return r.file.Close()
}

// Reader streams entries from a journal file.
type Reader struct {
	file    afero.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader opens the journal at path for reading entries that match filter.
func NewReader(fs afero.Fs, path string, filter Filter) (*Reader, error) {
	f, err := fs.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &Reader{
		file:    f,
		decoder: newDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching entry, or io.EOF at the end of the journal.
func (r *Reader) Next() (Entry, error) {
	for {
		var entry Entry
		if err := r.decoder.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				return Entry{}, io.EOF
			}

			return Entry{}, fmt.Errorf("decode journal entry: %w", err)
		}

		if r.filter.Matches(entry) {
			return entry, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll returns every entry of the journal at path that matches filter.
func ReadAll(ctx context.Context, fs afero.Fs, path string, filter Filter) ([]Entry, error) {
	reader, err := NewReader(fs, path, filter)
	if err != nil {
		return nil, err
	}

	defer reader.Close()

	var entries []Entry

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}

		if err != nil {
			return entries, err
		}

		entries = append(entries, entry)
	}
}
