package gs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/treeverse/fileconn/block"
	"github.com/treeverse/fileconn/logging"
)

const (
	ProtocolName = "gcs"

	ParamToken       = "token"
	ParamProject     = "project"
	ParamEndpointURL = "endpoint_url"
)

type Adapter struct {
	client  *storage.Client
	project string
	log     logging.Logger
}

func NewAdapter(client *storage.Client, project string) *Adapter {
	return &Adapter{
		client:  client,
		project: project,
		log:     logging.Default().WithFields(logging.Fields{"adapter": ProtocolName, "project": project}),
	}
}

// NewAdapterFromParams builds a storage client from connection parameters. See
// ClientOptions for the accepted token shapes.
func NewAdapterFromParams(ctx context.Context, params block.Params) (*Adapter, error) {
	if err := block.UnknownParams(params, ParamToken, ParamProject, ParamEndpointURL); err != nil {
		return nil, err
	}
	project, err := params.StringParam(ParamProject)
	if err != nil {
		return nil, err
	}
	opts, err := ClientOptions(params)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}
	return NewAdapter(client, project), nil
}

// ClientOptions translates the token and endpoint parameters into client options.
// Accepted token values:
//
//   nil, "google_default", "cloud"   application default credentials
//   "anon"                           unauthenticated access
//   {"access_token": ...}            static OAuth2 access token
//   {"type": "service_account", ...} credentials JSON as a mapping
//   "{...}"                          credentials JSON as a string
//   other strings                    path to a credentials JSON file
func ClientOptions(params block.Params) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	tokenOpts, err := tokenOptions(params[ParamToken])
	if err != nil {
		return nil, err
	}
	opts = append(opts, tokenOpts...)
	endpoint, err := params.StringParam(ParamEndpointURL)
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts, nil
}

func (a *Adapter) Protocol() string {
	return ProtocolName
}

func (a *Adapter) ResolvePointer(path string) (block.ObjectPointer, error) {
	return block.ResolveBucketPath(path)
}

func (a *Adapter) object(obj block.ObjectPointer) *storage.ObjectHandle {
	return a.client.Bucket(obj.StorageNamespace).Object(obj.Identifier)
}

func (a *Adapter) Put(ctx context.Context, obj block.ObjectPointer, sizeBytes int64, reader io.Reader, opts block.PutOpts) error {
	w := a.object(obj).NewWriter(ctx)
	if opts.ContentType != "" {
		w.ContentType = opts.ContentType
	}
	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs put %s: copy: %w", obj, err)
	}
	if err := w.Close(); err != nil {
		a.log.WithError(err).WithFields(logging.Fields{
			"bucket":     obj.StorageNamespace,
			"key":        obj.Identifier,
			"size_bytes": sizeBytes,
		}).Debug("gcs upload failed")
		return fmt.Errorf("gcs put %s: %w", obj, err)
	}
	return nil
}

func (a *Adapter) Get(ctx context.Context, obj block.ObjectPointer, _ int64) (io.ReadCloser, error) {
	r, err := a.object(obj).NewReader(ctx)
	if isNotFound(err) {
		return nil, block.NotFoundError(obj, err)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs get %s: %w", obj, err)
	}
	return r, nil
}

func (a *Adapter) Exists(ctx context.Context, obj block.ObjectPointer) (bool, error) {
	_, err := a.object(obj).Attrs(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("gcs attrs %s: %w", obj, err)
	}
	return true, nil
}

func (a *Adapter) Remove(ctx context.Context, obj block.ObjectPointer) error {
	err := a.object(obj).Delete(ctx)
	if isNotFound(err) {
		return block.NotFoundError(obj, err)
	}
	if err != nil {
		return fmt.Errorf("gcs delete %s: %w", obj, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist)
}
