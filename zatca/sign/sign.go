// Package sign produces the digital-signature artifacts required on
// standard invoices: a SHA-256 digest of the XML document, an ECDSA
// signature over that digest and the DER form of the signing public key,
// all base64-encoded for the TLV payload.
package sign

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"github.com/alapierre/go-zatca-client/zatca/model"
)

// HashInvoice computes the base64 SHA-256 digest of the invoice XML.
func HashInvoice(xml []byte) string {
	sum := sha256.Sum256(xml)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Sign hashes the invoice XML and signs the digest with the given ECDSA
// key. The signature is ASN.1 DER, as Go's ecdsa produces it.
func Sign(xml []byte, key *ecdsa.PrivateKey) (*model.Signature, error) {
	if key == nil {
		return nil, fmt.Errorf("sign: private key is nil")
	}

	digest := sha256.Sum256(xml)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign: ecdsa sign failed: %w", err)
	}

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("sign: marshal public key: %w", err)
	}

	return &model.Signature{
		InvoiceHash: base64.StdEncoding.EncodeToString(digest[:]),
		Signature:   base64.StdEncoding.EncodeToString(sig),
		PublicKey:   base64.StdEncoding.EncodeToString(pub),
	}, nil
}

// Verify checks a base64 ASN.1 signature over the XML digest against the
// public key. Used for self-verification in tests and diagnostics.
func Verify(xml []byte, signature string, pub *ecdsa.PublicKey) (bool, error) {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("sign: decode signature: %w", err)
	}
	digest := sha256.Sum256(xml)
	return ecdsa.VerifyASN1(pub, digest[:], sig), nil
}
