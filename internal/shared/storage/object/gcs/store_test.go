package gcs

import (
	"context"
	"testing"

	"google.golang.org/api/option"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", key: "u/1_a.pdf", want: "u/1_a.pdf"},
		{name: "prefix", prefix: "records", key: "u/1_a.pdf", want: "records/u/1_a.pdf"},
		{name: "leading slash key", prefix: "records", key: "/u/1_a.pdf", want: "records/u/1_a.pdf"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{prefix: tt.prefix}
			if got := s.objectName(tt.key); got != tt.want {
				t.Fatalf("objectName(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), "", "", option.WithoutAuthentication()); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}

func TestNewTrimsPrefix(t *testing.T) {
	s, err := New(context.Background(), "medvault", "/records/", option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Close()
	if s.prefix != "records" {
		t.Fatalf("expected trimmed prefix, got %q", s.prefix)
	}
}
