package chunk

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/raffaellobertini/bra/internal/crc32c"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	orig := make([]byte, Size*2+1234)
	// Half the data is highly repetitive (compresses well), half is
	// random (exercises the pipeline on incompressible input too).
	for i := range orig {
		if i < len(orig)/2 {
			orig[i] = byte(i % 5)
		} else {
			orig[i] = byte(rng.Intn(256))
		}
	}

	var scratch bytes.Buffer
	res, err := CompressToScratch(&scratch, bytes.NewReader(orig), int64(len(orig)))
	if err != nil {
		t.Fatalf("CompressToScratch: %v", err)
	}

	var decoded bytes.Buffer
	entryCRC, err := DecompressFile(&decoded, &scratch, int64(res.Size), 0)
	if err != nil {
		t.Fatalf("DecompressFile: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), orig) {
		t.Fatal("decompressed output does not match original")
	}
	if entryCRC != res.PayloadCRC {
		t.Errorf("entryCRC = %#x, want %#x (combine should have been unnecessary here since both start at 0)", entryCRC, res.PayloadCRC)
	}
}

func TestCopyFileRoundTrip(t *testing.T) {
	orig := bytes.Repeat([]byte("stored verbatim"), 5000)
	var dst bytes.Buffer
	crc, err := CopyFile(&dst, bytes.NewReader(orig), int64(len(orig)), 0)
	if err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), orig) {
		t.Fatal("copied output does not match original")
	}
	if want := crc32c.Checksum(orig); crc != want {
		t.Errorf("crc = %#x, want %#x", crc, want)
	}
}

func TestCompressSmallerThanOriginalForCompressibleInput(t *testing.T) {
	orig := bytes.Repeat([]byte{0x41}, Size)
	var scratch bytes.Buffer
	res, err := CompressToScratch(&scratch, bytes.NewReader(orig), int64(len(orig)))
	if err != nil {
		t.Fatalf("CompressToScratch: %v", err)
	}
	if res.Size >= int64(len(orig)) {
		t.Errorf("compressed size %d not smaller than original %d for a single repeated byte", res.Size, len(orig))
	}
}
