package isp

import (
	"strings"
	"testing"
)

func TestGzipSize(t *testing.T) {
	content := []byte(strings.Repeat("a{color:red}", 200))
	n, err := GzipSize(content)
	if err != nil {
		t.Fatalf("GzipSize() error = %v", err)
	}
	if n <= 0 || n >= len(content) {
		t.Errorf("GzipSize() = %d, want 0 < n < %d", n, len(content))
	}
}

func TestHumanSize(t *testing.T) {
	if got := HumanSize(1500); got != "1.5 kB" {
		t.Errorf("HumanSize(1500) = %q, want %q", got, "1.5 kB")
	}
}
