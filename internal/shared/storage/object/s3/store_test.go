package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/zii786/pitchframe/internal/shared/storage/object"
)

type fakeS3 struct {
	objects map[string][]byte
	lastPut *s3.PutObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.lastPut = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, key, want string
	}{
		{"", "user/file.pdf", "user/file.pdf"},
		{"root", "user/file.pdf", "root/user/file.pdf"},
		{"root/", "user/file.pdf", "root/user/file.pdf"},
		{"/root/", "/user/file.pdf", "root/user/file.pdf"},
		{"root/sub", "user/file.pdf", "root/sub/user/file.pdf"},
	}
	for _, tt := range tests {
		if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
			t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}

func TestSaveUsesPrefixAndEncryption(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := NewWithClient(fake, "bucket", "/pitches/", "kms-key")
	ctx := context.Background()

	obj, err := store.Save(ctx, "user-1", "deck.txt", strings.NewReader("hello investors"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.Size != 15 {
		t.Fatalf("unexpected size %d", obj.Size)
	}
	if got := aws.ToString(fake.lastPut.Key); got != "pitches/"+obj.Key {
		t.Fatalf("unexpected object key %q", got)
	}
	if fake.lastPut.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(fake.lastPut.SSEKMSKeyId) != "kms-key" {
		t.Fatalf("expected SSE-KMS")
	}

	data, err := object.ReadAll(ctx, store, obj.Key)
	if err != nil || string(data) != "hello investors" {
		t.Fatalf("ReadAll = %q, %v", data, err)
	}
}

func TestOpenMissingKey(t *testing.T) {
	store := NewWithClient(&fakeS3{objects: map[string][]byte{}}, "bucket", "", "")
	if _, err := store.Open(context.Background(), "nope"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
