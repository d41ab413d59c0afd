package auth

import (
	"strings"
	"testing"

	"github.com/debemdeboas/spawnwrite/internal/auth/testdata"
)

const errUnexpected = "Unexpected error: %v"
const errExpectedErrorGotNone = "Expected error but got none"

func TestParseEd25519PublicKey(t *testing.T) {
	testCases := []struct {
		name        string
		publicKey   string
		expectError bool
		errorMsg    string
	}{
		{
			name:      "Valid public key",
			publicKey: testdata.TestPublicKeyPEM,
		},
		{
			name:        "Invalid PEM format",
			publicKey:   "invalid-pem-data",
			expectError: true,
			errorMsg:    "failed to parse PEM block containing the public key",
		},
		{
			name:        "Valid PEM but not Ed25519",
			publicKey:   testdata.TestRSAPublicKeyPEM,
			expectError: true,
		},
		{
			name:        "Private key passed as public key",
			publicKey:   testdata.TestPrivateKeyPEM,
			expectError: true,
			errorMsg:    "failed to parse public key",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := ParseEd25519PublicKey(tc.publicKey)

			if tc.expectError {
				if err == nil {
					t.Fatal(errExpectedErrorGotNone)
				}
				if tc.errorMsg != "" && !strings.Contains(err.Error(), tc.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tc.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf(errUnexpected, err)
			}
			if len(key) != 32 {
				t.Errorf("Expected 32 byte key, got %d", len(key))
			}
		})
	}
}

func TestParseEd25519PrivateKey(t *testing.T) {
	key, err := ParseEd25519PrivateKey(testdata.TestPrivateKeyPEM)
	if err != nil {
		t.Fatalf(errUnexpected, err)
	}
	if len(key) != 64 {
		t.Errorf("Expected 64 byte key, got %d", len(key))
	}

	if _, err := ParseEd25519PrivateKey("not a key"); err == nil {
		t.Error(errExpectedErrorGotNone)
	}
	if _, err := ParseEd25519PrivateKey(testdata.TestPublicKeyPEM); err == nil {
		t.Error(errExpectedErrorGotNone)
	}
}
