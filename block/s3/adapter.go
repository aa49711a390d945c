package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/treeverse/fileconn/block"
	"github.com/treeverse/fileconn/logging"
)

const (
	ProtocolName = "s3"

	ParamKey            = "key"
	ParamSecret         = "secret"
	ParamToken          = "token"
	ParamAnon           = "anon"
	ParamEndpointURL    = "endpoint_url"
	ParamRegion         = "region"
	ParamClientKwargs   = "client_kwargs"
	ParamForcePathStyle = "force_path_style"

	clientKwargRegionName  = "region_name"
	clientKwargEndpointURL = "endpoint_url"

	DefaultRegion = "us-east-1"
)

type Adapter struct {
	s3       s3iface.S3API
	uploader *s3manager.Uploader
	log      logging.Logger
}

func NewAdapter(svc s3iface.S3API) *Adapter {
	return &Adapter{
		s3:       svc,
		uploader: s3manager.NewUploaderWithClient(svc),
		log:      logging.Default().WithField("adapter", ProtocolName),
	}
}

// Config is the client configuration derived from connection parameters.
type Config struct {
	Key            string
	Secret         string
	Token          string
	Anonymous      bool
	Endpoint       string
	Region         string
	ForcePathStyle bool
}

// ParseParams reads the s3 connection parameters. client_kwargs entries are used only
// when the top level parameter is missing.
func ParseParams(params block.Params) (Config, error) {
	var cfg Config
	if err := block.UnknownParams(params, ParamKey, ParamSecret, ParamToken, ParamAnon,
		ParamEndpointURL, ParamRegion, ParamClientKwargs, ParamForcePathStyle); err != nil {
		return cfg, err
	}
	var err error
	if cfg.Key, err = params.StringParam(ParamKey); err != nil {
		return cfg, err
	}
	if cfg.Secret, err = params.StringParam(ParamSecret); err != nil {
		return cfg, err
	}
	if cfg.Token, err = params.StringParam(ParamToken); err != nil {
		return cfg, err
	}
	if cfg.Anonymous, err = params.BoolParam(ParamAnon, false); err != nil {
		return cfg, err
	}
	if cfg.Endpoint, err = params.StringParam(ParamEndpointURL); err != nil {
		return cfg, err
	}
	if cfg.Region, err = params.StringParam(ParamRegion); err != nil {
		return cfg, err
	}
	kwargs, err := params.MapParam(ParamClientKwargs)
	if err != nil {
		return cfg, err
	}
	if cfg.Region == "" {
		if cfg.Region, err = kwargs.StringParam(clientKwargRegionName); err != nil {
			return cfg, err
		}
	}
	if cfg.Endpoint == "" {
		if cfg.Endpoint, err = kwargs.StringParam(clientKwargEndpointURL); err != nil {
			return cfg, err
		}
	}
	if cfg.ForcePathStyle, err = params.BoolParam(ParamForcePathStyle, cfg.Endpoint != ""); err != nil {
		return cfg, err
	}
	if (cfg.Key == "") != (cfg.Secret == "") {
		return cfg, fmt.Errorf("s3: %s and %s must be set together", ParamKey, ParamSecret)
	}
	return cfg, nil
}

// AWSConfig returns the aws client configuration. Without explicit keys the default
// credential chain applies (environment, shared config, instance role).
func (c Config) AWSConfig() *aws.Config {
	awsCfg := aws.NewConfig()
	region := c.Region
	if region == "" {
		region = DefaultRegion
	}
	awsCfg = awsCfg.WithRegion(region)
	switch {
	case c.Anonymous:
		awsCfg = awsCfg.WithCredentials(credentials.AnonymousCredentials)
	case c.Key != "":
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(c.Key, c.Secret, c.Token))
	}
	if c.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(c.Endpoint)
	}
	if c.ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}
	return awsCfg
}

func NewAdapterFromParams(params block.Params) (*Adapter, error) {
	cfg, err := ParseParams(params)
	if err != nil {
		return nil, err
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg.AWSConfig(),
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create session: %w", err)
	}
	return NewAdapter(s3.New(sess)), nil
}

func (a *Adapter) Protocol() string {
	return ProtocolName
}

func (a *Adapter) ResolvePointer(path string) (block.ObjectPointer, error) {
	return block.ResolveBucketPath(path)
}

func (a *Adapter) Put(ctx context.Context, obj block.ObjectPointer, sizeBytes int64, reader io.Reader, opts block.PutOpts) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(obj.StorageNamespace),
		Key:    aws.String(obj.Identifier),
		Body:   reader,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	_, err := a.uploader.UploadWithContext(ctx, input)
	if err != nil {
		a.log.WithError(err).WithFields(logging.Fields{
			"bucket":     obj.StorageNamespace,
			"key":        obj.Identifier,
			"size_bytes": sizeBytes,
		}).Debug("s3 upload failed")
		return fmt.Errorf("s3 put %s: %w", obj, err)
	}
	return nil
}

func (a *Adapter) Get(ctx context.Context, obj block.ObjectPointer, _ int64) (io.ReadCloser, error) {
	out, err := a.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(obj.StorageNamespace),
		Key:    aws.String(obj.Identifier),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, block.NotFoundError(obj, err)
		}
		return nil, fmt.Errorf("s3 get %s: %w", obj, err)
	}
	return out.Body, nil
}

func (a *Adapter) Exists(ctx context.Context, obj block.ObjectPointer) (bool, error) {
	_, err := a.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(obj.StorageNamespace),
		Key:    aws.String(obj.Identifier),
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("s3 head %s: %w", obj, err)
	}
	return true, nil
}

func (a *Adapter) Remove(ctx context.Context, obj block.ObjectPointer) error {
	exists, err := a.Exists(ctx, obj)
	if err != nil {
		return err
	}
	if !exists {
		return block.NotFoundError(obj, nil)
	}
	_, err = a.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(obj.StorageNamespace),
		Key:    aws.String(obj.Identifier),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", obj, err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aErr awserr.Error
	if errors.As(err, &aErr) {
		switch aErr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}
