// Package secret encrypts short secrets, like the portal password, with a key
// derived from a passphrase.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

var ErrDecrypt = errors.New("secret could not be decrypted")

func deriveKey(passphrase string, salt []byte) (*[keySize]byte, error) {
	derived, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, err
	}
	var key [keySize]byte
	copy(key[:], derived)
	return &key, nil
}

// Encrypt seals plaintext and returns `salt | nonce | box` encoded as base64.
func Encrypt(plaintext, passphrase string) (string, error) {
	var salt [saltSize]byte
	_, err := io.ReadFull(rand.Reader, salt[:])
	if err != nil {
		return "", err
	}
	var nonce [nonceSize]byte
	_, err = io.ReadFull(rand.Reader, nonce[:])
	if err != nil {
		return "", err
	}
	key, err := deriveKey(passphrase, salt[:])
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(plaintext), &nonce, key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a value produced by Encrypt with the same passphrase.
func Decrypt(encoded, passphrase string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	if len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}

	salt := raw[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return "", err
	}

	plaintext, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

// MachinePassphrase ties encrypted values to the current host and user, a
// value encrypted elsewhere will not decrypt here.
func MachinePassphrase() string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	username := ""
	current, err := user.Current()
	if err == nil {
		username = current.Username
	}
	return strings.ToUpper(host) + "]y6P41L[" + strings.ToUpper(username)
}
