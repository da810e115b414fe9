package firmware

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/iotadmin/internal/cryptox"
	"github.com/dmitrijs2005/iotadmin/internal/filex"
	"github.com/google/uuid"
)

// Stored describes where a downloaded image ended up.
type Stored struct {
	Location string
	Size     int64
	SHA256   string
}

// Sink is the destination of downloaded firmware images.
type Sink interface {
	Save(ctx context.Context, name string, size int64, r io.Reader) (Stored, error)
}

// DirSink writes downloads into a local directory, never overwriting an
// existing file.
type DirSink struct {
	Dir string
}

func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

func (s *DirSink) Save(ctx context.Context, name string, _ int64, r io.Reader) (Stored, error) {
	dir, err := filex.EnsureSubdDir(s.Dir)
	if err != nil {
		return Stored{}, err
	}

	var f *os.File
	for {
		target, err := filex.UniquePath(dir, name)
		if err != nil {
			return Stored{}, err
		}
		f, err = os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return Stored{}, fmt.Errorf("create %s: %w", target, err)
		}
	}

	digest, n, err := cryptox.SHA256Hex(io.TeeReader(r, f))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return Stored{}, fmt.Errorf("write %s: %w", f.Name(), err)
	}

	return Stored{Location: f.Name(), Size: n, SHA256: digest}, nil
}

// S3Config selects the bucket downloads are archived to.
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Prefix       string
}

// S3PutAPI is the subset of *s3.Client used by S3Sink.
type S3PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives downloads into an S3-compatible bucket.
type S3Sink struct {
	api    S3PutAPI
	bucket string
	prefix string
	now    func() time.Time
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3PutAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Sink builds a sink from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sink: bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 sink: load aws config: %w", err)
	}

	api := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3SinkWithClient(api, cfg.Bucket, cfg.Prefix), nil
}

func NewS3SinkWithClient(api S3PutAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{api: api, bucket: bucket, prefix: prefix, now: time.Now}
}

// key lays objects out as <prefix>/firmware/YYYY/MM/DD/<uuid>-<name>.
func (s *S3Sink) key(name string) string {
	d := s.now().UTC()
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return path.Join(s.prefix, "firmware",
		fmt.Sprintf("%d/%02d/%02d", d.Year(), d.Month(), d.Day()),
		uuid.NewString()+"-"+base)
}

// Save spools r to a temporary file so the upload body is seekable, then puts
// it into the bucket.
func (s *S3Sink) Save(ctx context.Context, name string, _ int64, r io.Reader) (Stored, error) {
	tmp, err := os.CreateTemp("", "iotadmin-download-*")
	if err != nil {
		return Stored{}, fmt.Errorf("s3 sink: spool: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	digest, n, err := cryptox.SHA256Hex(io.TeeReader(r, tmp))
	if err != nil {
		return Stored{}, fmt.Errorf("s3 sink: spool: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return Stored{}, fmt.Errorf("s3 sink: rewind: %w", err)
	}

	key := s.key(name)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          tmp,
		ContentLength: aws.Int64(n),
		ContentType:   aws.String("application/octet-stream"),
		Metadata:      map[string]string{"sha256": digest, "original-name": path.Base(name)},
	})
	if err != nil {
		return Stored{}, fmt.Errorf("s3 sink: put %s: %w", key, err)
	}

	return Stored{Location: "s3://" + s.bucket + "/" + key, Size: n, SHA256: digest}, nil
}
