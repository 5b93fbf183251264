package archive

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

type captureLogger struct {
	lines []string
}

func (c *captureLogger) Infof(format string, args ...interface{}) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}
func (c *captureLogger) Warnf(format string, args ...interface{})  {}
func (c *captureLogger) Errorf(format string, args ...interface{}) {}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

// TestSingleSmallFile is spec.md §8 scenario 1.
func TestSingleSmallFile(t *testing.T) {
	chdir(t, t.TempDir())

	if err := os.WriteFile("hello.txt", []byte("Hello, World!\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var s Session
	if err := s.Create(context.Background(), "out.BRa", []string{"hello.txt"}, CreateOptions{Compression: CompressionStored}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	info, err := os.Stat("out.BRa")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 45 {
		t.Errorf("archive size = %d, want 45 (8 header + 19 entry meta + 14 payload + 4 crc)", info.Size())
	}

	outDir := t.TempDir()
	var extract Session
	if err := extract.Extract(context.Background(), "out.BRa", false, outDir, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "hello.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello, World!\n" {
		t.Errorf("extracted content = %q, want %q", got, "Hello, World!\n")
	}
}

// TestCompressiblePayload is spec.md §8 scenario 2.
func TestCompressiblePayload(t *testing.T) {
	chdir(t, t.TempDir())

	zeros := make([]byte, 10000)
	if err := os.WriteFile("zeros.bin", zeros, 0644); err != nil {
		t.Fatal(err)
	}

	var s Session
	if err := s.Create(context.Background(), "out.BRa", []string{"zeros.bin"}, CreateOptions{Compression: CompressionCompressed}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	raw, err := os.ReadFile("out.BRa")
	if err != nil {
		t.Fatal(err)
	}
	if AttrComp(raw[HeaderSize]) != CompCompressed {
		t.Fatal("expected entry to carry the COMPRESSED attribute bit")
	}
	if len(raw) >= 200+HeaderSize+2+len("zeros.bin")+8+4 {
		t.Errorf("archive size %d too large for a 10000-byte run of zeros to have compressed well", len(raw))
	}

	var test Session
	if err := test.Test(context.Background(), "out.BRa", false, nil); err != nil {
		t.Errorf("Test: %v", err)
	}

	outDir := t.TempDir()
	var extract Session
	if err := extract.Extract(context.Background(), "out.BRa", false, outDir, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "zeros.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, zeros) {
		t.Error("extracted zeros.bin does not match original")
	}
}

// TestIncompressiblePayloadFallsBackToStored is spec.md §8 scenario 3.
func TestIncompressiblePayloadFallsBackToStored(t *testing.T) {
	chdir(t, t.TempDir())

	randBytes := make([]byte, 10000)
	if _, err := rand.Read(randBytes); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("rand.bin", randBytes, 0644); err != nil {
		t.Fatal(err)
	}

	var s Session
	if err := s.Create(context.Background(), "out.BRa", []string{"rand.bin"}, CreateOptions{Compression: CompressionCompressed}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	raw, err := os.ReadFile("out.BRa")
	if err != nil {
		t.Fatal(err)
	}
	if AttrComp(raw[HeaderSize]) != CompStored {
		t.Fatal("expected entry attribute to fall back to STORED for incompressible input")
	}

	outDir := t.TempDir()
	var extract Session
	if err := extract.Extract(context.Background(), "out.BRa", false, outDir, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "rand.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, randBytes) {
		t.Error("extracted rand.bin does not match original")
	}
}

// TestNestedDirectories is spec.md §8 scenario 4.
func TestNestedDirectories(t *testing.T) {
	chdir(t, t.TempDir())

	for _, f := range []string{"a/b/c.txt", "a/b/d.txt", "a/e.txt"} {
		if err := os.MkdirAll(filepath.Dir(f), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(f, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}

	log := &captureLogger{}
	var s Session
	opts := CreateOptions{Recursive: true, Compression: CompressionStored, Log: log}
	if err := s.Create(context.Background(), "out.BRa", []string{"a"}, opts); err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []string{"a/", "a/e.txt", "a/b/", "a/b/c.txt", "a/b/d.txt", "created out.BRa"}
	if len(log.lines) != len(want) {
		t.Fatalf("logged %d entries %v, want %d %v", len(log.lines), log.lines, len(want), want)
	}
	for i := range want {
		if log.lines[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, log.lines[i], want[i])
		}
	}

	raw, err := os.ReadFile("out.BRa")
	if err != nil {
		t.Fatal(err)
	}
	if numFiles := binary.LittleEndian.Uint32(raw[4:8]); numFiles != 5 {
		t.Errorf("num_files = %d, want 5", numFiles)
	}

	outDir := t.TempDir()
	var extract Session
	if err := extract.Extract(context.Background(), "out.BRa", false, outDir, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, f := range []string{"a/b/c.txt", "a/b/d.txt", "a/e.txt"} {
		got, err := os.ReadFile(filepath.Join(outDir, f))
		if err != nil {
			t.Fatalf("reading extracted %s: %v", f, err)
		}
		if string(got) != f {
			t.Errorf("%s content = %q, want %q", f, got, f)
		}
	}
}

// TestTraversalAttackRejected is spec.md §8 scenario 5.
func TestTraversalAttackRejected(t *testing.T) {
	chdir(t, t.TempDir())

	var s Session
	err := s.Create(context.Background(), "out.BRa", []string{"../secrets"}, CreateOptions{})
	if err == nil {
		t.Fatal("expected Create to reject a path escaping the working directory")
	}
	if _, statErr := os.Stat("out.BRa"); !os.IsNotExist(statErr) {
		t.Error("Create must not leave an output file behind after rejecting an unsafe input")
	}
}

// TestSFXRoundTrip is spec.md §8 scenario 6.
func TestSFXRoundTrip(t *testing.T) {
	chdir(t, t.TempDir())

	stub := bytes.Repeat([]byte{0xCA, 0xFE}, 100) // 200 bytes, >= 12
	if err := os.WriteFile("stub.bin", stub, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("hello.txt", []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	var s Session
	opts := CreateOptions{SFX: true, StubPath: "stub.bin", Compression: CompressionStored}
	if err := s.Create(context.Background(), "out.brx", []string{"hello.txt"}, opts); err != nil {
		t.Fatalf("Create: %v", err)
	}

	raw, err := os.ReadFile("out.brx")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, stub) {
		t.Fatal("sfx output does not start with the stub bytes")
	}

	footer, err := ReadFooter(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("ReadFooter: %v", err)
	}
	if footer.HeaderOffset != int64(len(stub)) {
		t.Errorf("header_offset = %d, want %d", footer.HeaderOffset, len(stub))
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat("out.brx")
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0100 == 0 {
			t.Error("sfx output is not executable")
		}
	}

	outDir := t.TempDir()
	var extract Session
	if err := extract.Extract(context.Background(), "out.brx", true, outDir, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "hello.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Errorf("extracted content = %q, want %q", got, "hi")
	}
}

// TestCRCFlipDetected covers spec.md §8's "flipping any single byte...
// causes test(A) to fail" universal invariant.
func TestCRCFlipDetected(t *testing.T) {
	chdir(t, t.TempDir())

	if err := os.WriteFile("a.txt", []byte("some payload bytes to flip"), 0644); err != nil {
		t.Fatal(err)
	}
	var s Session
	if err := s.Create(context.Background(), "out.BRa", []string{"a.txt"}, CreateOptions{Compression: CompressionStored}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	raw, err := os.ReadFile("out.BRa")
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xFF // flip every bit of the trailing CRC's last byte
	if err := os.WriteFile("out.BRa", raw, 0644); err != nil {
		t.Fatal(err)
	}

	var test Session
	if err := test.Test(context.Background(), "out.BRa", false, nil); err == nil {
		t.Fatal("expected Test to fail after corrupting the trailing CRC")
	}
}
