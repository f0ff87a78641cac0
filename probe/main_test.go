package main

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestParseWord(t *testing.T) {
	for range 100_000 + rand.Intn(100_000) {
		expected := rand.Uint32()

		word, err := ParseWord(fmt.Sprintf("%d", expected))
		if err != nil {
			t.Fatal(err)
		}
		if word != expected {
			t.Fatalf("expected %d, got %d", expected, word)
		}

		word, err = ParseWord(fmt.Sprintf("%#x", expected))
		if err != nil {
			t.Fatal(err)
		}
		if word != expected {
			t.Fatalf("expected %d, got %d", expected, word)
		}

		word, err = ParseWord(fmt.Sprintf("0x%08X", expected))
		if err != nil {
			t.Fatal(err)
		}
		if word != expected {
			t.Fatalf("expected %d, got %d", expected, word)
		}
	}
}

func TestParseWordRejects(t *testing.T) {
	for _, text := range []string{"", "nope", "0x", "0x1ffffffff", "-1", "4294967296"} {
		if _, err := ParseWord(text); err == nil {
			t.Fatalf("expected an error for %q", text)
		}
	}
}
