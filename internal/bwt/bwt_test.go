package bwt

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("a"),
		[]byte("banana"),
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		bytes.Repeat([]byte{0x00, 0xff}, 1000),
	}
	for _, c := range cases {
		encoded, primary := Encode(c)
		decoded, err := Decode(encoded, primary)
		if err != nil {
			t.Fatalf("Decode(%q): %v", c, err)
		}
		if !bytes.Equal(decoded, c) {
			t.Errorf("round trip of %q = %q", c, decoded)
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		buf := make([]byte, rng.Intn(65536))
		rng.Read(buf)
		encoded, primary := Encode(buf)
		decoded, err := Decode(encoded, primary)
		if err != nil {
			t.Fatalf("len %d: Decode: %v", len(buf), err)
		}
		if !bytes.Equal(decoded, buf) {
			t.Errorf("len %d: round trip mismatch", len(buf))
		}
	}
}

func TestDecodePrimaryOutOfRange(t *testing.T) {
	if _, err := Decode([]byte("abc"), 10); err == nil {
		t.Fatal("expected error for out-of-range primary index")
	}
}
