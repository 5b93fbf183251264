package crc32c

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestChecksumKnownVector(t *testing.T) {
	// CRC-32C("123456789") is a standard Castagnoli test vector.
	got := Checksum([]byte("123456789"))
	const want = 0xE3069283
	if got != want {
		t.Fatalf("Checksum(%q) = %#x, want %#x", "123456789", got, want)
	}
}

func TestUpdateIncremental(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	whole := Checksum(data)

	for split := 0; split <= len(data); split++ {
		crc := Update(0, data[:split])
		crc = Update(crc, data[split:])
		if crc != whole {
			t.Errorf("split at %d: Update in two parts = %#x, want %#x", split, crc, whole)
		}
	}
}

func TestCombine(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		a := make([]byte, rng.Intn(2000))
		b := make([]byte, rng.Intn(2000))
		rng.Read(a)
		rng.Read(b)

		whole := Checksum(append(bytes.Clone(a), b...))
		crcA := Checksum(a)
		crcB := Checksum(b)
		combined := Combine(crcA, crcB, int64(len(b)))
		if combined != whole {
			t.Fatalf("len(a)=%d len(b)=%d: Combine = %#x, want %#x", len(a), len(b), combined, whole)
		}
	}
}

func TestCombineEmptySecondOperand(t *testing.T) {
	crcA := Checksum([]byte("some data"))
	if got := Combine(crcA, Checksum(nil), 0); got != crcA {
		t.Fatalf("Combine with empty b = %#x, want %#x", got, crcA)
	}
}
