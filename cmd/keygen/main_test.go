package main

import (
	"crypto/ed25519"
	"testing"

	"github.com/debemdeboas/spawnwrite/internal/auth"
)

func TestGenerateEd25519RoundTrips(t *testing.T) {
	kp, err := generateEd25519()
	if err != nil {
		t.Fatalf("Failed to generate key pair: %v", err)
	}

	priv, err := auth.ParseEd25519PrivateKey(kp.PrivatePEM)
	if err != nil {
		t.Fatalf("Generated private key does not parse: %v", err)
	}
	pub, err := auth.ParseEd25519PublicKey(kp.PublicPEM)
	if err != nil {
		t.Fatalf("Generated public key does not parse: %v", err)
	}

	msg := []byte("challenge")
	if !ed25519.Verify(pub, msg, ed25519.Sign(priv, msg)) {
		t.Error("Public key does not verify signatures of the private key")
	}
}

func TestGenerateSecretIsLongEnough(t *testing.T) {
	s, err := generateSecret()
	if err != nil {
		t.Fatalf("Failed to generate secret: %v", err)
	}
	if len(s) < 32 {
		t.Errorf("Expected at least 32 characters, got %d", len(s))
	}

	other, _ := generateSecret()
	if s == other {
		t.Error("Expected distinct secrets")
	}
}
