package main

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandayo-labs/veilsdk/content"
	"github.com/pandayo-labs/veilsdk/primitive"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Encrypt or decrypt data with a raw symmetric key",
}

var (
	contentKeyB64 string
	contentInput  string
)

var contentEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a string under a base64 AES-256-GCM key, printing the combined ciphertext",
	RunE:  runContentEncrypt,
}

var contentDecryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a combined-string ciphertext produced by encrypt",
	RunE:  runContentDecrypt,
}

func init() {
	rootCmd.AddCommand(contentCmd)
	contentCmd.AddCommand(contentEncryptCmd, contentDecryptCmd)

	for _, c := range []*cobra.Command{contentEncryptCmd, contentDecryptCmd} {
		c.Flags().StringVar(&contentKeyB64, "key", "", "base64-encoded 32-byte AES-256-GCM key (generated if omitted, encrypt only)")
		c.Flags().StringVar(&contentInput, "in", "", "text to encrypt, or ciphertext string to decrypt")
		_ = c.MarkFlagRequired("in")
	}
}

func loadOrGenerateKey() (primitive.SymmetricKey, error) {
	if contentKeyB64 == "" {
		return primitive.GenerateSymmetricKey()
	}
	raw, err := base64.StdEncoding.DecodeString(contentKeyB64)
	if err != nil {
		return primitive.SymmetricKey{}, fmt.Errorf("decode key: %w", err)
	}
	return primitive.SymmetricKey{Alg: primitive.AlgAESGCM256, Raw: raw}, nil
}

func runContentEncrypt(cmd *cobra.Command, args []string) error {
	key, err := loadOrGenerateKey()
	if err != nil {
		return err
	}

	ciphertext, err := content.EncryptSymmetricString(key, []byte(contentInput), nil, nil)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	fmt.Printf("key:        %s\n", base64.StdEncoding.EncodeToString(key.Raw))
	fmt.Printf("ciphertext: %s\n", ciphertext)
	return nil
}

func runContentDecrypt(cmd *cobra.Command, args []string) error {
	if contentKeyB64 == "" {
		return fmt.Errorf("--key is required to decrypt")
	}
	key, err := loadOrGenerateKey()
	if err != nil {
		return err
	}

	plaintext, err := content.DecryptSymmetricString(key, contentInput, nil, nil)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}

	fmt.Printf("plaintext: %s\n", plaintext)
	return nil
}
