package pathsan

import (
	"errors"
	"testing"
)

func TestSanitizeAccepts(t *testing.T) {
	wd := t.TempDir()
	cases := []struct {
		in   string
		want string
	}{
		{"a.txt", "a.txt"},
		{"./a.txt", "a.txt"},
		{"sub/a.txt", "sub/a.txt"},
		{"sub/../b.txt", "b.txt"},
	}
	for _, c := range cases {
		got, err := Sanitize(wd, c.in)
		if err != nil {
			t.Errorf("Sanitize(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeRejectsTraversal(t *testing.T) {
	wd := t.TempDir()
	cases := []string{"../escape.txt", "sub/../../escape.txt", "../../etc/passwd"}
	for _, in := range cases {
		if _, err := Sanitize(wd, in); !errors.Is(err, ErrTraversal) && !errors.Is(err, ErrEscapesRoot) {
			t.Errorf("Sanitize(%q): got %v, want ErrTraversal or ErrEscapesRoot", in, err)
		}
	}
}

func TestSanitizeRejectsAbsolute(t *testing.T) {
	wd := t.TempDir()
	if _, err := Sanitize(wd, "/etc/passwd"); !errors.Is(err, ErrAbsolute) {
		t.Errorf("Sanitize(absolute): got %v, want ErrAbsolute", err)
	}
}

func TestSanitizeRejectsOversizedName(t *testing.T) {
	wd := t.TempDir()
	long := make([]byte, MaxNameBytes+10)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := Sanitize(wd, string(long)); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Sanitize(long name): got %v, want ErrNameTooLong", err)
	}
}

func TestIsWildcard(t *testing.T) {
	cases := map[string]bool{
		"a.txt":     false,
		"*.txt":     true,
		"dir/*.go":  true,
		"file?.txt": true,
		"plain":     false,
	}
	for in, want := range cases {
		if got := IsWildcard(in); got != want {
			t.Errorf("IsWildcard(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSanitizeComponent(t *testing.T) {
	if err := SanitizeComponent("valid-name.txt"); err != nil {
		t.Errorf("SanitizeComponent(valid): %v", err)
	}
	if err := SanitizeComponent("has/slash"); err == nil {
		t.Error("SanitizeComponent(has slash): expected error")
	}
	if err := SanitizeComponent(""); err == nil {
		t.Error("SanitizeComponent(empty): expected error")
	}
}
