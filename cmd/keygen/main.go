// Command keygen prints signing material for auth.secret or
// auth.private_key_pem / auth.public_key_pem.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/spawnwrite/internal/util"
)

const secretBytes = 48

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

type keyPair struct {
	PrivatePEM string
	PublicPEM  string
}

func generateEd25519() (*keyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return &keyPair{
		PrivatePEM: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
		PublicPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
	}, nil
}

func generateSecret() (string, error) {
	return util.RandomToken(secretBytes)
}

func main() {
	var outDir string

	root := &cobra.Command{
		Use:          "keygen",
		Short:        "Generate session signing keys",
		SilenceUsage: true,
	}

	ed := &cobra.Command{
		Use:   "ed25519",
		Short: "Generate an Ed25519 key pair (signing_method: EdDSA)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := generateEd25519()
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.WriteFile(filepath.Join(outDir, "privkey.pem"), []byte(kp.PrivatePEM), 0o600); err != nil {
					return err
				}
				if err := os.WriteFile(filepath.Join(outDir, "pubkey.pem"), []byte(kp.PublicPEM), 0o644); err != nil {
					return err
				}
			}
			fmt.Println(labelStyle.Render("private_key_pem:"))
			fmt.Println(outputStyle.Render(strings.TrimSpace(kp.PrivatePEM)))
			fmt.Println(labelStyle.Render("public_key_pem:"))
			fmt.Println(outputStyle.Render(strings.TrimSpace(kp.PublicPEM)))
			return nil
		},
	}
	ed.Flags().StringVarP(&outDir, "out", "o", "", "also write privkey.pem and pubkey.pem into this directory")

	secret := &cobra.Command{
		Use:   "secret",
		Short: "Generate an HS256 secret (signing_method: HS256)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := generateSecret()
			if err != nil {
				return err
			}
			fmt.Println(labelStyle.Render("secret:"), outputStyle.Render(s))
			return nil
		},
	}

	root.AddCommand(ed, secret)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
