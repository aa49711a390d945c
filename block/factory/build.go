package factory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/treeverse/fileconn/block"
	"github.com/treeverse/fileconn/block/gs"
	"github.com/treeverse/fileconn/block/local"
	"github.com/treeverse/fileconn/block/mem"
	"github.com/treeverse/fileconn/block/s3"
	"github.com/treeverse/fileconn/logging"
)

var ErrUnknownProtocol = errors.New("unknown protocol")

// BuildAdapter is a block.Factory covering every built in backend. Protocol aliases
// are accepted case insensitively.
func BuildAdapter(ctx context.Context, protocol string, params block.Params) (block.Adapter, error) {
	log := logging.Default().WithField("protocol", protocol)
	switch strings.ToLower(protocol) {
	case local.ProtocolName, "local", "":
		adapter, err := local.NewAdapterFromParams(params)
		if err != nil {
			return nil, err
		}
		log.Debug("initialized local adapter")
		return adapter, nil
	case s3.ProtocolName, "s3a":
		adapter, err := s3.NewAdapterFromParams(params)
		if err != nil {
			return nil, err
		}
		log.Debug("initialized s3 adapter")
		return adapter, nil
	case gs.ProtocolName, "gs":
		adapter, err := gs.NewAdapterFromParams(ctx, params)
		if err != nil {
			return nil, err
		}
		log.Debug("initialized gcs adapter")
		return adapter, nil
	case mem.ProtocolName, "mem":
		if err := block.UnknownParams(params); err != nil {
			return nil, err
		}
		return mem.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, protocol)
	}
}

var _ block.Factory = BuildAdapter
