package firmware

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSink_WritesWithoutOverwriting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dl")
	sink := NewDirSink(dir)
	ctx := context.Background()

	first, err := sink.Save(ctx, "fw.bin", 3, strings.NewReader("one"))
	require.NoError(t, err)
	second, err := sink.Save(ctx, "fw.bin", 3, strings.NewReader("two"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "fw.bin"), first.Location)
	assert.Equal(t, filepath.Join(dir, "fw (1).bin"), second.Location)
	assert.Equal(t, int64(3), second.Size)
	assert.Len(t, first.SHA256, 64)

	b, err := os.ReadFile(first.Location)
	require.NoError(t, err)
	assert.Equal(t, "one", string(b))
	b, err = os.ReadFile(second.Location)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
}

func TestDirSink_StripsDirectoriesFromName(t *testing.T) {
	dir := t.TempDir()
	st, err := NewDirSink(dir).Save(context.Background(), "../../etc/passwd.bin", 1, strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "passwd.bin"), st.Location)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDirSink_ReadFailureRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	_, err := NewDirSink(dir).Save(context.Background(), "fw.bin", 10, io.MultiReader(strings.NewReader("part"), failingReader{}))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Sink_PutsObjectUnderDatedKey(t *testing.T) {
	api := &fakeS3{}
	sink := NewS3SinkWithClient(api, "firmware-archive", "prod")
	sink.now = func() time.Time { return time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC) }

	st, err := sink.Save(context.Background(), "fw_v2.bin", 5, strings.NewReader("IMAGE"))
	require.NoError(t, err)

	require.NotNil(t, api.in)
	assert.Equal(t, "firmware-archive", aws.ToString(api.in.Bucket))
	key := aws.ToString(api.in.Key)
	assert.True(t, strings.HasPrefix(key, "prod/firmware/2025/03/07/"), key)
	assert.True(t, strings.HasSuffix(key, "-fw_v2.bin"), key)
	assert.Equal(t, int64(5), aws.ToInt64(api.in.ContentLength))
	assert.Equal(t, "IMAGE", api.body)
	assert.Equal(t, st.SHA256, api.in.Metadata["sha256"])
	assert.Equal(t, "s3://firmware-archive/"+key, st.Location)
}

func TestS3Sink_PutError(t *testing.T) {
	sink := NewS3SinkWithClient(&fakeS3{err: errors.New("denied")}, "b", "")
	_, err := sink.Save(context.Background(), "fw.bin", 1, strings.NewReader("x"))
	require.ErrorContains(t, err, "denied")
}

func TestNewS3Sink_WiresConfig(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	var lo config.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}

	var opts s3.Options
	fake := &fakeS3{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3PutAPI {
		for _, fn := range optFns {
			fn(&opts)
		}
		return fake
	}

	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket:       "b",
		Region:       "eu-central-1",
		BaseEndpoint: "http://localhost:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
	})
	require.NoError(t, err)

	assert.Equal(t, "eu-central-1", lo.Region)
	require.NotNil(t, lo.Credentials)
	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minio", creds.AccessKeyID)

	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Same(t, fake, sink.api)
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{})
	require.Error(t, err)
}
