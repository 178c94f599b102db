package lcctrl

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Token is a 128-bit transition token. Token[0] holds bits 127..96 and is
// written first.
type Token [4]uint32

// ParseToken parses 32 hex digits (optional 0x prefix, '_' separators
// allowed) most significant digit first.
func ParseToken(s string) (Token, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	s = strings.ReplaceAll(s, "_", "")
	if len(s) != 32 {
		return Token{}, fmt.Errorf("token must be 32 hex digits, got %d", len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Token{}, fmt.Errorf("parse token: %w", err)
	}
	var t Token
	for i := range t {
		t[i] = binary.BigEndian.Uint32(raw[i*4:])
	}
	return t, nil
}

// String formats the token as 32 hex digits.
func (t Token) String() string {
	return fmt.Sprintf("%08x%08x%08x%08x", t[0], t[1], t[2], t[3])
}

// bytesLE returns the token as a little-endian 128-bit integer.
func (t Token) bytesLE() []byte {
	b := make([]byte, 16)
	for i := range t {
		binary.LittleEndian.PutUint32(b[(3-i)*4:], t[i])
	}
	return b
}

func tokenFromLE(b []byte) Token {
	var t Token
	for i := range t {
		t[i] = binary.LittleEndian.Uint32(b[(3-i)*4:])
	}
	return t
}

// hashCustomization is the cSHAKE function-name customization string.
const hashCustomization = "LC_CTRL"

// HashToken returns the 128-bit cSHAKE128 digest of t, customized with
// "LC_CTRL". The digest is what gets provisioned into OTP; the controller
// hashes the clear token it receives and compares.
func HashToken(t Token) Token {
	h := sha3.NewCShake128(nil, []byte(hashCustomization))
	h.Write(t.bytesLE())
	out := make([]byte, 16)
	h.Read(out)
	return tokenFromLE(out)
}
