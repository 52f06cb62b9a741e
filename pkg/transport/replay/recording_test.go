package replay

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/assert/v2"

	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/tree"
	tb "github.com/vango-dev/treebridge/pkg/treebuild"
)

const sample = `{"hash":5,"tag":"div","attrsHash":0,"attrs":{},"entriesHash":0,"entries":[]}

null
"loading"
`

func TestLoad(t *testing.T) {
	trees, err := Load(strings.NewReader(sample))
	assert.Equal(t, err, nil)
	assert.Equal(t, len(trees), 3)

	n := tree.AsNode(trees[0])
	if n == nil {
		t.Fatal("first line did not decode to a node")
	}
	assert.Equal(t, n.Hash, tree.Hash(5))
	assert.Equal(t, trees[1], nil)
	assert.Equal(t, trees[2], tree.Leaf("loading"))
}

func TestLoadReportsLine(t *testing.T) {
	_, err := Load(strings.NewReader("\"ok\"\n[1]\n"))
	assert.Equal(t, errors.HasCode(err, errors.CodeRecordingFormat), true)
	if !strings.Contains(errors.FromError(err, "").Detail, "Line 2") {
		t.Errorf("error detail = %q, want the line number", errors.FromError(err, "").Detail)
	}
}

func TestEncodeLoadRoundTrip(t *testing.T) {
	want := []tree.Tree{
		tb.El("ul", tb.Key("a", tb.El("li", tb.On("onclick", map[string]any{"id": "a"}), "A"))),
		nil,
		tree.Leaf("done"),
	}

	var buf bytes.Buffer
	assert.Equal(t, Encode(&buf, want), nil)

	got, err := Load(&buf)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(got), len(want))
	assert.Equal(t, tb.Hash(got[0]), tb.Hash(want[0]))
	assert.Equal(t, tree.AsNode(got[0]).Hash, tree.AsNode(want[0]).Hash)
	assert.Equal(t, got[1], nil)
	assert.Equal(t, got[2], tree.Leaf("done"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.jsonl")
	assert.Equal(t, os.WriteFile(path, []byte(sample), 0o644), nil)

	trees, err := LoadFile(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(trees), 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Equal(t, errors.HasCode(err, errors.CodeRecordingOpen), true)
}

type fakeS3 struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestLoadS3(t *testing.T) {
	client := &fakeS3{body: sample}
	trees, err := LoadS3(context.Background(), client, "recordings", "2026/session.jsonl")
	assert.Equal(t, err, nil)
	assert.Equal(t, len(trees), 3)
	assert.Equal(t, client.bucket, "recordings")
	assert.Equal(t, client.key, "2026/session.jsonl")

	_, err = LoadS3(context.Background(), &fakeS3{err: stderrors.New("access denied")}, "b", "k")
	assert.Equal(t, errors.HasCode(err, errors.CodeObjectFetch), true)
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in          string
		bucket, key string
		ok          bool
	}{
		{"s3://bucket/key.jsonl", "bucket", "key.jsonl", true},
		{"s3://bucket/a/b/c.jsonl", "bucket", "a/b/c.jsonl", true},
		{"s3://bucket", "", "", false},
		{"s3://bucket/", "", "", false},
		{"s3:///key", "", "", false},
		{"/tmp/file.jsonl", "", "", false},
	}
	for _, tt := range tests {
		bucket, key, ok := ParseS3URL(tt.in)
		if bucket != tt.bucket || key != tt.key || ok != tt.ok {
			t.Errorf("ParseS3URL(%q) = %q, %q, %v", tt.in, bucket, key, ok)
		}
	}
}
