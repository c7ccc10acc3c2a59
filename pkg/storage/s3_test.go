package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(data)
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	for _, id := range in.Delete.Objects {
		delete(f.objects, aws.ToString(id.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if len(k) >= len(aws.ToString(in.Prefix)) && k[:len(aws.ToString(in.Prefix))] == aws.ToString(in.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Mirror_MirrorAndDelete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edition-01-03-2024.pdf"), []byte("pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "page-1.jpg"), []byte("jpg"), 0o644))

	fake := newFakeS3()
	fake.objects["epaper/uploads/editions/2024/03/01/other/edition.pdf"] = "keep"
	m := newS3Mirror(fake, S3Config{Bucket: "b", BasePath: "epaper/", CDNURL: "https://cdn.example.com/"})

	web := "/uploads/editions/2024/03/01/2024-03-01_101530_abc"
	n, err := m.MirrorDir(context.Background(), dir, web)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "pdf", fake.objects["epaper/uploads/editions/2024/03/01/2024-03-01_101530_abc/edition-01-03-2024.pdf"])
	assert.Equal(t, "jpg", fake.objects["epaper/uploads/editions/2024/03/01/2024-03-01_101530_abc/images/page-1.jpg"])
	assert.Equal(t, "image/jpeg", fake.types["epaper/uploads/editions/2024/03/01/2024-03-01_101530_abc/images/page-1.jpg"])

	assert.Equal(t, "https://cdn.example.com/epaper/uploads/editions/x.pdf", m.CDNURL("/uploads/editions/x.pdf"))

	deleted, err := m.DeletePrefix(context.Background(), web)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Len(t, fake.objects, 1)
	assert.Contains(t, fake.objects, "epaper/uploads/editions/2024/03/01/other/edition.pdf")
}

func TestNewS3Mirror_RequiresBucket(t *testing.T) {
	_, err := NewS3Mirror(S3Config{})
	assert.Error(t, err)
}
