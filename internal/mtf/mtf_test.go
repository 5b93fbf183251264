package mtf

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("a"),
		[]byte("aaaaaaaaaa"),
		[]byte("banana"),
		bytes.Repeat([]byte{0, 1, 2, 3, 255}, 100),
	}
	for _, c := range cases {
		if got := Decode(Encode(c)); !bytes.Equal(got, c) {
			t.Errorf("round trip of %q = %q", c, got)
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	buf := make([]byte, 65536)
	rng.Read(buf)
	if got := Decode(Encode(buf)); !bytes.Equal(got, buf) {
		t.Fatal("round trip mismatch on random 64KiB input")
	}
}

func TestEncodeRecentByteGetsLowIndex(t *testing.T) {
	out := Encode([]byte{5, 5, 5})
	want := []byte{5, 0, 0}
	if !bytes.Equal(out, want) {
		t.Errorf("Encode({5,5,5}) = %v, want %v", out, want)
	}
}
