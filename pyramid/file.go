package pyramid

import (
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
)

// File is a locally staged copy of an object. Reads and writes go to the local copy;
// Close runs the upload hook (write mode) and removes the local copy.
type File struct {
	fh      *os.File
	name    string
	release func()
	close   func(f *os.File, size int64) error
	size    int64
	closed  bool
}

// Name returns the object path the file was opened with.
func (f *File) Name() string {
	return f.name
}

func (f *File) Read(p []byte) (n int, err error) {
	return f.fh.Read(p)
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	return f.fh.ReadAt(p, off)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.fh.Seek(offset, whence)
}

func (f *File) Write(p []byte) (n int, err error) {
	s, err := f.fh.Write(p)
	f.size += int64(s)
	return s, err
}

func (f *File) WriteString(s string) (n int, err error) {
	return f.Write([]byte(s))
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.fh.Stat()
}

func (f *File) Sync() error {
	return f.fh.Sync()
}

// Close is safe to call more than once; only the first call has an effect.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	defer f.release()

	var result error
	if f.close != nil {
		if err := f.close(f.fh, f.size); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := f.fh.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// Discard closes the file without running the close hook, so staged writes are
// never uploaded. It is a no-op on a closed file.
func (f *File) Discard() error {
	if f.closed {
		return nil
	}
	f.closed = true
	defer f.release()
	return f.fh.Close()
}

var (
	_ io.ReadWriteCloser = (*File)(nil)
	_ io.ReaderAt        = (*File)(nil)
	_ io.Seeker          = (*File)(nil)
	_ io.StringWriter    = (*File)(nil)
)
