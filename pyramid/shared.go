package pyramid

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"sync"

	"github.com/google/uuid"
)

var ErrAlreadyRegistered = errors.New("file system already registered")

// SharedLocalStorage hands out one staging directory per named file system. A name can
// be registered by a single live file system at a time.
type SharedLocalStorage struct {
	mu          sync.Mutex
	filesystems map[string]FS
	basepath    string
}

func NewSharedLocalStorage(baseFolderPath string) (*SharedLocalStorage, error) {
	if err := os.MkdirAll(baseFolderPath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating base dir: %w", err)
	}

	return &SharedLocalStorage{
		filesystems: map[string]FS{},
		basepath:    baseFolderPath,
	}, nil
}

var (
	defaultStorage     *SharedLocalStorage
	defaultStorageErr  error
	defaultStorageOnce sync.Once
)

// DefaultSharedLocalStorage returns a process wide storage under the system temp dir.
func DefaultSharedLocalStorage() (*SharedLocalStorage, error) {
	defaultStorageOnce.Do(func() {
		dir := path.Join(os.TempDir(), "fileconn-"+uuid.New().String())
		defaultStorage, defaultStorageErr = NewSharedLocalStorage(dir)
	})
	return defaultStorage, defaultStorageErr
}

func (sd *SharedLocalStorage) Register(fsName string, fs FS) (string, error) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	if _, ok := sd.filesystems[fsName]; ok {
		return "", fmt.Errorf("%w: %s", ErrAlreadyRegistered, fsName)
	}

	dirPath := sd.dirPath(fsName)
	// leftovers from an earlier registration are never reused
	if err := os.RemoveAll(dirPath); err != nil {
		return "", fmt.Errorf("cleaning fs dir: %w", err)
	}
	if err := os.Mkdir(dirPath, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating fs dir: %w", err)
	}

	sd.filesystems[fsName] = fs
	return dirPath, nil
}

// Unregister releases the name and removes its staging directory.
func (sd *SharedLocalStorage) Unregister(fsName string) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	if _, ok := sd.filesystems[fsName]; !ok {
		return nil
	}
	delete(sd.filesystems, fsName)
	if err := os.RemoveAll(sd.dirPath(fsName)); err != nil {
		return fmt.Errorf("removing fs dir: %w", err)
	}
	return nil
}

func (sd *SharedLocalStorage) dirPath(fsName string) string {
	return path.Join(sd.basepath, "fs-"+url.PathEscape(fsName))
}
