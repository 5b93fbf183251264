package huffman

import (
	"bytes"
	"math/rand"
	"testing"
)

func roundTrip(t *testing.T, buf []byte) {
	t.Helper()
	enc := Encode(buf)
	if enc.Orig != uint32(len(buf)) {
		t.Fatalf("Orig = %d, want %d", enc.Orig, len(buf))
	}
	got, err := Decode(enc.Lengths, enc.Payload, enc.Orig)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("round trip of %q = %q", buf, got)
	}
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil)
}

func TestRoundTripSingleSymbol(t *testing.T) {
	roundTrip(t, bytes.Repeat([]byte{'x'}, 500))
}

func TestRoundTripTwoSymbols(t *testing.T) {
	roundTrip(t, []byte("ababababababab"))
}

func TestRoundTripAllSymbols(t *testing.T) {
	buf := make([]byte, 256*4)
	for i := range buf {
		buf[i] = byte(i % 256)
	}
	roundTrip(t, buf)
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 10; i++ {
		buf := make([]byte, rng.Intn(65536))
		rng.Read(buf)
		roundTrip(t, buf)
	}
}

func TestRoundTripEqualFrequencyTieBreak(t *testing.T) {
	// Every symbol appears exactly once: ties all the way down. Encode
	// must still decode, regardless of which ties the min-heap resolves
	// first, because codes and tree are both derived from the same
	// buildFromLengths call.
	buf := make([]byte, 256)
	for i := range buf {
		buf[i] = byte(i)
	}
	roundTrip(t, buf)
}

func TestDecodeEmptyLengthsWithNonZeroOrig(t *testing.T) {
	var lengths [alphabetSize]uint8
	if _, err := Decode(lengths, nil, 1); err == nil {
		t.Fatal("expected error decoding with no symbols present")
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	enc := Encode([]byte("abababababab"))
	_, err := Decode(enc.Lengths, enc.Payload[:len(enc.Payload)-1], enc.Orig)
	if err == nil {
		t.Fatal("expected error decoding truncated payload")
	}
}
