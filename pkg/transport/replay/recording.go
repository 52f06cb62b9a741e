package replay

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/tree"
)

// MaxLineSize bounds one recorded tree.
const MaxLineSize = 16 * 1024 * 1024

// Load reads a JSON-lines recording. Blank lines are skipped.
func Load(r io.Reader) ([]tree.Tree, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	var trees []tree.Tree
	line := 0
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		t, err := tree.DecodeJSON(data)
		if err != nil {
			return nil, errors.New(errors.CodeRecordingFormat).
				WithDetailf("Line %d does not hold a tree.", line).
				Wrap(err)
		}
		trees = append(trees, t)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New(errors.CodeRecordingOpen).Wrap(err)
	}
	return trees, nil
}

// LoadFile reads a recording from path.
func LoadFile(path string) ([]tree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.CodeRecordingOpen).
			WithDetailf("Could not open %s.", path).
			Wrap(err)
	}
	defer f.Close()
	return Load(f)
}

// Encode writes trees as a JSON-lines recording.
func Encode(w io.Writer, trees []tree.Tree) error {
	bw := bufio.NewWriter(w)
	for _, t := range trees {
		data, err := tree.EncodeJSON(t)
		if err != nil {
			return err
		}
		bw.Write(data)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ObjectGetter is the subset of *s3.Client used by LoadS3.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadS3 reads a recording stored in an S3 object.
func LoadS3(ctx context.Context, client ObjectGetter, bucket, key string) ([]tree.Tree, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New(errors.CodeObjectFetch).
			WithDetailf("Could not fetch s3://%s/%s.", bucket, key).
			Wrap(err)
	}
	defer out.Body.Close()
	return Load(out.Body)
}

// NewS3Client creates an S3 client from the default AWS configuration.
// A non-empty endpoint selects an S3-compatible store with path-style
// addressing.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New(errors.CodeObjectFetch).
			WithDetail("Could not load the AWS configuration.").
			Wrap(err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ParseS3URL splits "s3://bucket/key".
func ParseS3URL(u string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(u, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
