package pyramid

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/google/uuid"

	"github.com/treeverse/fileconn/block"
	"github.com/treeverse/fileconn/logging"
)

// TierFS is a filesystem where all files are stored in the block storage.
// Local paths are treated as a staging layer: written files are uploaded when closed
// and read files are fetched into a local copy that lives until the file is closed.
type TierFS struct {
	adaptor      block.Adapter
	localStorage *SharedLocalStorage
	log          logging.Logger

	fsName       string
	localBaseDir string
}

func NewTierFS(adaptor block.Adapter, localStorage *SharedLocalStorage, fsName string) (*TierFS, error) {
	fs := &TierFS{
		adaptor:      adaptor,
		localStorage: localStorage,
		fsName:       fsName,
		log: logging.Default().WithFields(logging.Fields{
			"fs":       fsName,
			"protocol": adaptor.Protocol(),
		}),
	}
	fsDir, err := localStorage.Register(fsName, fs)
	if err != nil {
		return nil, err
	}
	fs.localBaseDir = fsDir

	return fs, nil
}

// Adapter returns the block adapter backing this FS.
func (tfs *TierFS) Adapter() block.Adapter {
	return tfs.adaptor
}

// Close releases the FS name and its staging directory.
func (tfs *TierFS) Close() error {
	return tfs.localStorage.Unregister(tfs.fsName)
}

// Store uploads the local file to the FS.
func (tfs *TierFS) Store(ctx context.Context, originalPath, filename string) error {
	obj, err := tfs.adaptor.ResolvePointer(filename)
	if err != nil {
		return err
	}
	f, err := os.Open(originalPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("file stat: %w", err)
	}

	if err := tfs.adaptor.Put(ctx, obj, stat.Size(), f, block.PutOpts{}); err != nil {
		return fmt.Errorf("adapter put: %w", err)
	}
	return nil
}

func (tfs *TierFS) Create(ctx context.Context, filename string) (*File, error) {
	obj, err := tfs.adaptor.ResolvePointer(filename)
	if err != nil {
		return nil, err
	}
	localpath := tfs.localpath()
	fh, err := os.Create(localpath)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	return &File{
		fh:   fh,
		name: filename,
		release: func() {
			tfs.removeLocal(localpath)
		},
		close: func(fh *os.File, size int64) error {
			if _, err := fh.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("rewind staged file: %w", err)
			}
			if err := tfs.adaptor.Put(ctx, obj, size, fh, block.PutOpts{}); err != nil {
				return fmt.Errorf("adapter put: %w", err)
			}
			tfs.log.WithFields(logging.Fields{"path": filename, "size_bytes": size}).Trace("stored file")
			return nil
		},
	}, nil
}

// Open returns a file descriptor to a local copy of the object.
func (tfs *TierFS) Open(ctx context.Context, filename string) (*File, error) {
	obj, err := tfs.adaptor.ResolvePointer(filename)
	if err != nil {
		return nil, err
	}
	localpath := tfs.localpath()
	fh, err := tfs.readFromBlockStorage(ctx, obj, localpath)
	if err != nil {
		return nil, err
	}

	return &File{
		fh:   fh,
		name: filename,
		release: func() {
			tfs.removeLocal(localpath)
		},
	}, nil
}

func (tfs *TierFS) readFromBlockStorage(ctx context.Context, obj block.ObjectPointer, localPath string) (*os.File, error) {
	reader, err := tfs.adaptor.Get(ctx, obj, -1)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	writer, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	if _, err := io.Copy(writer, reader); err != nil {
		_ = writer.Close()
		tfs.removeLocal(localPath)
		return nil, fmt.Errorf("copying data to file: %w", err)
	}
	if err := writer.Close(); err != nil {
		tfs.removeLocal(localPath)
		return nil, fmt.Errorf("closing file: %w", err)
	}

	fh, err := os.Open(localPath)
	if err != nil {
		tfs.removeLocal(localPath)
		return nil, fmt.Errorf("open file: %w", err)
	}
	return fh, nil
}

func (tfs *TierFS) removeLocal(localPath string) {
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		tfs.log.WithError(err).WithField("local_path", localPath).Warn("failed to remove staged file")
	}
}

func (tfs *TierFS) localpath() string {
	return path.Join(tfs.localBaseDir, uuid.New().String())
}

var _ FS = (*TierFS)(nil)
