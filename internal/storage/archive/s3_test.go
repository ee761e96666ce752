package archive

import (
	"testing"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "funds.json", "funds.json"},
		{"snapshots", "funds.json", "snapshots/funds.json"},
		{"snapshots/", "/funds.json", "snapshots/funds.json"},
		{"/public/data/", "global_assets.json", "public/data/global_assets.json"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "fundwatch", Region: "us-east-1", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("NewS3: %v", err)
		}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{Region: "us-east-1"}); err == nil {
		t.Error("expected error without bucket")
	}
}

func TestS3Storage_Name(t *testing.T) {
	s, _ := NewS3(S3Config{Bucket: "fundwatch", Prefix: "data"})
	if s.Name() != "s3://fundwatch/data" {
		t.Errorf("unexpected name %q", s.Name())
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("funds.json"); got != "application/json; charset=utf-8" {
		t.Errorf("contentType(funds.json) = %q", got)
	}
	if got := contentType("funds.prom"); got != "application/octet-stream" {
		t.Errorf("contentType(funds.prom) = %q", got)
	}
}
