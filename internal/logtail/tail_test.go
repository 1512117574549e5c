package logtail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helixio.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestReadLastReturnsTrailingLines(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\nfour\n")

	lines, offset, err := ReadLast(path, 2)
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}
	if len(lines) != 2 || lines[0] != "three" || lines[1] != "four" {
		t.Fatalf("lines = %v", lines)
	}
	if offset != int64(len("one\ntwo\nthree\nfour\n")) {
		t.Fatalf("offset = %d", offset)
	}
}

func TestReadLastShortFile(t *testing.T) {
	path := writeLog(t, "only\n")

	lines, _, err := ReadLast(path, 10)
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}
	if len(lines) != 1 || lines[0] != "only" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestReadLastMissingFile(t *testing.T) {
	lines, offset, err := ReadLast(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("lines = %v, offset = %d", lines, offset)
	}
}

func TestReadFromPicksUpAppendedLines(t *testing.T) {
	path := writeLog(t, "first\n")

	_, offset, err := ReadLast(path, 0)
	if err != nil {
		t.Fatalf("ReadLast: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("second\nthird\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	lines, newOffset, err := ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 2 || lines[0] != "second" || lines[1] != "third" {
		t.Fatalf("lines = %v", lines)
	}
	if newOffset <= offset {
		t.Fatalf("offset did not advance: %d -> %d", offset, newOffset)
	}
}

func TestReadFromClampsStaleOffset(t *testing.T) {
	path := writeLog(t, "fresh\n")

	// An offset beyond EOF means the file was truncated or rotated.
	lines, _, err := ReadFrom(path, 10_000)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestFollowEmitsUntilCanceled(t *testing.T) {
	path := writeLog(t, "")

	emitted := make(chan string, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, 0, func(line string) { emitted <- line })
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("hello\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	select {
	case line := <-emitted:
		if line != "hello" {
			t.Fatalf("line = %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no line emitted before timeout")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Follow returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop after cancel")
	}
}
