package main

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"argument", []string{"s3cret"}, "", "s3cret"},
		{"stdin", nil, "from stdin\n", "from stdin"},
		{"stdin without newline", nil, "x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(tt.args, strings.NewReader(tt.stdin), &out); err != nil {
				t.Fatalf("run: %v", err)
			}
			hash := strings.TrimSpace(out.String())
			if len(hash) != 60 || !strings.HasPrefix(hash, "$2a$") {
				t.Errorf("hash = %q", hash)
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(tt.want)); err != nil {
				t.Errorf("hash does not match %q: %v", tt.want, err)
			}
		})
	}
}

func TestRunEmptyPassword(t *testing.T) {
	var out bytes.Buffer
	if err := run(nil, strings.NewReader("\n"), &out); err == nil {
		t.Error("expected error for empty password")
	}
}
