package sign

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashInvoice_Stable(t *testing.T) {
	xml := []byte("<Invoice/>")
	assert.Equal(t, HashInvoice(xml), HashInvoice(xml))
	assert.NotEqual(t, HashInvoice(xml), HashInvoice([]byte("<Invoice> </Invoice>")))
}

func TestSign_RoundTrip(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	xml := []byte("<Invoice><cbc:ID>INV-1</cbc:ID></Invoice>")

	sig, err := Sign(xml, key)
	require.NoError(t, err)
	assert.Equal(t, HashInvoice(xml), sig.InvoiceHash)
	assert.NotEmpty(t, sig.Signature)
	assert.NotEmpty(t, sig.PublicKey)

	ok, err := Verify(xml, sig.Signature, &key.PublicKey)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify([]byte("tampered"), sig.Signature, &key.PublicKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSign_NilKey(t *testing.T) {
	_, err := Sign([]byte("x"), nil)
	assert.Error(t, err)
}
