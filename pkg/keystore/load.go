package keystore

import (
	"crypto"
	"fmt"
	"os"

	"software.sslmate.com/src/go-pkcs12"
)

// Load reads a password-protected PKCS#12 container from path and builds a
// Store holding a single entry under alias: the container's leaf
// certificate and private key. This is the concrete container format the
// builder pipeline drives KeyStoreFile/KeyStoreBytes through; Store itself
// stays format-agnostic for callers (tests, PartnerCertificates) that
// populate it directly via Add.
func Load(path, alias, password string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: read %s: %w", path, err)
	}
	store, err := LoadBytes(data, alias, password)
	if err != nil {
		return nil, err
	}
	if err := store.BindFile(path, false); err != nil {
		return nil, err
	}
	return store, nil
}

// LoadBytes decodes a password-protected PKCS#12 container already in
// memory and builds a Store holding a single entry under alias.
func LoadBytes(data []byte, alias, password string) (*Store, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("keystore: decode pkcs12: %w", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("keystore: pkcs12 private key does not implement crypto.Signer")
	}

	store := New()
	store.Add(alias, Entry{Certificate: cert, PrivateKey: signer})
	return store, nil
}
