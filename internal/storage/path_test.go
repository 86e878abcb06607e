package storage

import (
	"testing"
	"time"
)

func TestBuildArtifactKey(t *testing.T) {
	builtAt := time.Date(2024, 5, 3, 17, 30, 0, 0, time.UTC)
	key, err := BuildArtifactKey("text-embedding-3-small", builtAt)
	if err != nil {
		t.Fatalf("BuildArtifactKey() error = %v", err)
	}
	want := "knowledge/text-embedding-3-small/date=2024-05-03/context-items.parquet"
	if key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}
}

func TestBuildArtifactKeyRejectsBadModelName(t *testing.T) {
	if _, err := BuildArtifactKey("../escape", time.Now()); err == nil {
		t.Fatal("expected error for invalid model name")
	}
	if _, err := BuildArtifactKey("", time.Now()); err == nil {
		t.Fatal("expected error for empty model name")
	}
}
