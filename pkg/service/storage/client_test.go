package storage_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/intake/pkg/service/storage"
)

func TestNew_RequiresBucket(t *testing.T) {
	_, err := storage.New(context.Background(), "", nil)
	gt.Error(t, err)
}

func TestUpload(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET is not set")
	}

	ctx := context.Background()
	svc, err := storage.New(ctx, bucket, []storage.Option{storage.WithPrefix("/test/")})
	gt.NoError(t, err).Required()

	name := fmt.Sprintf("upload_%d.txt", time.Now().UnixNano())
	url, err := svc.Upload(ctx, name, "text/plain", strings.NewReader("hello"))
	gt.NoError(t, err).Required()
	gt.Value(t, url).Equal(fmt.Sprintf("https://storage.googleapis.com/%s/test/%s", bucket, name))
}

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		path   string
		want   string
	}{
		{
			name:   "plain name",
			bucket: "attachments",
			path:   "cases/c1/u1_memo.pdf",
			want:   "https://storage.googleapis.com/attachments/cases/c1/u1_memo.pdf",
		},
		{
			name:   "space and Japanese",
			bucket: "attachments",
			path:   "cases/c1/u1_面談 メモ.pdf",
			want:   "https://storage.googleapis.com/attachments/cases/c1/u1_%E9%9D%A2%E8%AB%87%20%E3%83%A1%E3%83%A2.pdf",
		},
		{
			name:   "reserved characters stay inside the segment",
			bucket: "attachments",
			path:   "cases/c1/u1_a?b#c%.txt",
			want:   "https://storage.googleapis.com/attachments/cases/c1/u1_a%3Fb%23c%25.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, storage.ObjectURL(tt.bucket, tt.path)).Equal(tt.want)
		})
	}
}
