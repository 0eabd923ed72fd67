package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"gale8/internal/services"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*awss3.PutObjectInput
	pages   int
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &awss3.HeadObjectOutput{}, nil
}

// ListObjectsV2 returns one object per page to exercise continuation.
func (f *fakeS3) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.pages++
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	start := 0
	if in.ContinuationToken != nil {
		for i, key := range keys {
			if key == aws.ToString(in.ContinuationToken) {
				start = i
			}
		}
	}
	if start >= len(keys) {
		return &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
	}
	out := &awss3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String(keys[start]), Size: aws.Int64(int64(len(f.objects[keys[start]])))}},
	}
	if start+1 < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[start+1])
	} else {
		out.IsTruncated = aws.Bool(false)
	}
	return out, nil
}

func TestS3StoreOperations(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{
		"archive/20241014Z0520.mp3": []byte("a"),
		"archive/20241015Z0520.mp3": []byte("bb"),
		"cues/x.json":               []byte("{}"),
	}}
	store := newS3WithClient(fake, "gale8-test", true)

	data, err := store.Get(ctx, "archive/20241015Z0520.mp3")
	if err != nil || string(data) != "bb" {
		t.Fatalf("Get returned %q, %v", data, err)
	}
	if _, err := store.Get(ctx, "archive/missing.mp3"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := store.Put(ctx, "stream.mp3", []byte("mp3"), ContentTypeMPEG); err != nil {
		t.Fatalf("Put: %v", err)
	}
	put := fake.puts[len(fake.puts)-1]
	if aws.ToString(put.ContentType) != ContentTypeMPEG {
		t.Fatalf("unexpected content type %q", aws.ToString(put.ContentType))
	}
	if put.ACL != types.ObjectCannedACLPublicRead {
		t.Fatalf("expected public-read ACL, got %q", put.ACL)
	}

	objects, err := store.List(ctx, "archive/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 2 || objects[0].Key != "archive/20241014Z0520.mp3" || objects[1].Size != 2 {
		t.Fatalf("unexpected listing: %+v", objects)
	}
	if fake.pages < 2 {
		t.Fatalf("expected paginated listing, got %d pages", fake.pages)
	}

	ok, err := store.Exists(ctx, "cues/x.json")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	ok, err = store.Exists(ctx, "cues/y.json")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
}
