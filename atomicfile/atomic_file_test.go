package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func assertFileExists(t *testing.T, path string) {
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file '%s' doesn't exist, os.Stat() failed with '%s'", path, err)
	}
	if !st.Mode().IsRegular() {
		t.Fatalf("path '%s' exists but is not a file (mode: %d)", path, int(st.Mode()))
	}
}

func assertFileNotExists(t *testing.T, path string) {
	_, err := os.Stat(path)
	if err == nil {
		t.Fatalf("file '%s' exists, expected to not exist", path)
	}
}

func assertNoError(t *testing.T, err error) {
	if err != nil {
		t.Fatalf("error: %s", err)
	}
}

func assertFileContentEqual(t *testing.T, path string, d []byte) {
	got, err := os.ReadFile(path)
	assertNoError(t, err)
	if string(got) != string(d) {
		t.Fatalf("path: '%s', expected content %q, got %q", path, d, got)
	}
}

func TestWrite(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.txt")

	{
		// Close with no writes creates an empty destination
		f, err := New(dst)
		assertNoError(t, err)
		assertFileExists(t, f.tmpPath)
		err = f.Close()
		assertNoError(t, err)
		assertFileExists(t, dst)
		assertFileNotExists(t, f.tmpPath)
		assertFileContentEqual(t, dst, nil)
	}

	d := []byte("some content\n")
	{
		f, err := New(dst)
		assertNoError(t, err)
		n, err := f.Write(d)
		assertNoError(t, err)
		if n != len(d) {
			t.Fatalf("expected to write %d bytes, wrote %d", len(d), n)
		}
		err = f.Close()
		assertNoError(t, err)
		assertFileNotExists(t, f.tmpPath)
		assertFileContentEqual(t, dst, d)
		// calling Close twice is a no-op
		err = f.Close()
		assertNoError(t, err)
	}

	{
		// RemoveIfNotClosed sets an error state and keeps old content
		f, err := New(dst)
		assertNoError(t, err)
		f.RemoveIfNotClosed()
		_, err = f.Write(d)
		if err != ErrCancelled {
			t.Fatalf("expected err to be %v, got %v", ErrCancelled, err)
		}
		err = f.Close()
		if err != ErrCancelled {
			t.Fatalf("expected err to be %v, got %v", ErrCancelled, err)
		}
		assertFileContentEqual(t, dst, d)
	}

	{
		// missing directory is caught in New, before any writes
		f, err := New(filepath.Join(t.TempDir(), "no-such-dir", "bar.txt"))
		if err == nil {
			t.Fatal("expected to get an error")
		}
		if f != nil {
			t.Fatalf("expected f to be nil, got %v", f)
		}
	}
}

func TestSimulateError(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.txt")
	f, err := New(dst)
	assertNoError(t, err)
	assertFileExists(t, f.tmpPath)
	_, err = f.Write([]byte("foo"))
	assertNoError(t, err)
	// simulate an error
	errSimulated := errors.New("simulated")
	f.err = errSimulated
	err = f.Close()
	if err != errSimulated {
		t.Fatalf("got unexpected error")
	}
	assertFileNotExists(t, f.tmpPath)
	assertFileNotExists(t, dst)
	// on second Close() should get the same error
	err = f.Close()
	if err != errSimulated {
		t.Fatalf("got unexpected error")
	}
}

func writeThenPanic(t *testing.T, f *File) {
	defer f.RemoveIfNotClosed()

	_, err := f.Write([]byte("foo"))
	assertNoError(t, err)
	panic("simulating a crash")
}

func TestPanicCleanup(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.txt")
	f, err := New(dst)
	assertNoError(t, err)
	assertFileExists(t, f.tmpPath)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected to panic")
			}
		}()
		writeThenPanic(t, f)
	}()
	assertFileNotExists(t, f.tmpPath)
	assertFileNotExists(t, dst)
}
