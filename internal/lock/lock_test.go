package lock

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAcquireExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "java-kiosk.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if first.Path() != path {
		t.Errorf("Path() = %s, want %s", first.Path(), path)
	}

	if _, err := Acquire(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire() error = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	defer second.Release()
}

func TestReleaseTwice(t *testing.T) {
	inst, err := Acquire(filepath.Join(t.TempDir(), "java-kiosk.lock"))
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Release(); err != nil {
		t.Fatal(err)
	}
	if err := inst.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}

	var nilInst *Instance
	if err := nilInst.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestAcquireMissingDirectory(t *testing.T) {
	_, err := Acquire(filepath.Join(t.TempDir(), "missing", "java-kiosk.lock"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if errors.Is(err, ErrLocked) {
		t.Error("missing directory should not report ErrLocked")
	}
}
