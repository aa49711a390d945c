package connection

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/treeverse/fileconn/pyramid"
)

// Mode selects how Open accesses a path. Text and binary modes transfer the same
// bytes; the distinction keeps cached reads of both kinds apart.
type Mode string

const (
	ModeReadBinary  Mode = "rb"
	ModeReadText    Mode = "rt"
	ModeWriteBinary Mode = "wb"
	ModeWriteText   Mode = "wt"

	DefaultMode = ModeReadBinary
)

// ParseMode accepts rb, rt, wb, wt, plus r and w as text modes. An empty mode is
// DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "":
		return DefaultMode, nil
	case "r":
		return ModeReadText, nil
	case "w":
		return ModeWriteText, nil
	case string(ModeReadBinary), string(ModeReadText), string(ModeWriteBinary), string(ModeWriteText):
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) Writing() bool {
	return m == ModeWriteBinary || m == ModeWriteText
}

func (m Mode) Binary() bool {
	return m == ModeReadBinary || m == ModeWriteBinary
}

// Open opens path and passes the file to fn. The file is closed whatever fn does.
// In write modes the content is uploaded when fn returns nil and discarded
// otherwise. Errors of fn and of closing the file are combined.
func (c *Connection) Open(ctx context.Context, path string, mode string, fn func(f *pyramid.File) error) error {
	m, err := ParseMode(mode)
	if err != nil {
		return err
	}
	fs, err := c.filesystem(ctx)
	if err != nil {
		return err
	}
	var f *pyramid.File
	if m.Writing() {
		f, err = fs.Create(ctx, path)
	} else {
		f, err = fs.Open(ctx, path)
	}
	if err != nil {
		return err
	}
	return run(f, fn)
}

func run(f *pyramid.File, fn func(f *pyramid.File) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = f.Discard()
			panic(p)
		}
	}()
	if fnErr := fn(f); fnErr != nil {
		if discardErr := f.Discard(); discardErr != nil {
			return multierror.Append(fnErr, discardErr)
		}
		return fnErr
	}
	return f.Close()
}
