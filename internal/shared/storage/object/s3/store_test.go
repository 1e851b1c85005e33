package s3

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/file.pdf", want: "user/file.pdf"},
		{name: "simple prefix", prefix: "records", key: "user/file.pdf", want: "records/user/file.pdf"},
		{name: "prefix and key slashes", prefix: "/records/", key: "/user/file.pdf", want: "records/user/file.pdf"},
		{name: "empty key", prefix: "records", key: "", want: "records"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestPresignGetIncludesDispositionAndExpiry(t *testing.T) {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	store, err := NewFromConfig(cfg, "medvault-docs", "records/", "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	raw, err := store.PresignGet(context.Background(), "abc/123_scan.png", "chest scan.png", 5*time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.Contains(parsed.Path, "records/abc/123_scan.png") {
		t.Fatalf("expected prefixed key in path, got %s", parsed.Path)
	}
	q := parsed.Query()
	if q.Get("X-Amz-Expires") != "300" {
		t.Fatalf("expected 300s expiry, got %q", q.Get("X-Amz-Expires"))
	}
	if !strings.Contains(q.Get("response-content-disposition"), "chest scan.png") {
		t.Fatalf("expected content disposition, got %q", q.Get("response-content-disposition"))
	}
}

func TestNewFromConfigRequiresBucket(t *testing.T) {
	if _, err := NewFromConfig(aws.Config{Region: "us-east-1"}, " ", "", ""); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}
