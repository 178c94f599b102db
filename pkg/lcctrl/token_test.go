package lcctrl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawUnlockToken = Token{0xf12a5911, 0x421748a2, 0xadfc9693, 0xef1fadea}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in      string
		want    Token
		wantErr bool
	}{
		{"f12a5911421748a2adfc9693ef1fadea", rawUnlockToken, false},
		{"0xF12A5911_421748A2_ADFC9693_EF1FADEA", rawUnlockToken, false},
		{"00000000000000000000000000000001", Token{0, 0, 0, 1}, false},
		{"f12a5911", Token{}, true},
		{"zz2a5911421748a2adfc9693ef1fadea", Token{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseToken(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Token {
	t.Helper()
	tok, err := ParseToken(s)
	require.NoError(t, err)
	return tok
}

func TestTokenLittleEndianLayout(t *testing.T) {
	tok := Token{0x00112233, 0x44556677, 0x8899aabb, 0xccddeeff}
	b := tok.bytesLE()
	assert.Equal(t, byte(0xff), b[0], "least significant byte first")
	assert.Equal(t, byte(0x00), b[15])
	assert.Equal(t, tok, tokenFromLE(b))
}

func TestHashToken(t *testing.T) {
	h1 := HashToken(rawUnlockToken)
	h2 := HashToken(rawUnlockToken)
	assert.Equal(t, h1, h2, "deterministic")
	assert.NotEqual(t, rawUnlockToken, h1)
	assert.NotEqual(t, h1, HashToken(Token{}))
	assert.NotEqual(t, HashToken(Token{0, 0, 0, 1}), HashToken(Token{1, 0, 0, 0}))
}

func TestParseState(t *testing.T) {
	tests := []struct {
		in      string
		want    State
		wantErr bool
	}{
		{"scrap", StateScrap, false},
		{"TEST_UNLOCKED0", StateTestUnlocked0, false},
		{"20", StateScrap, false},
		{"0x1f", MaxState, false},
		{"32", 0, true},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseState(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseState(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseState(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if StateScrap.String() != "SCRAP" {
		t.Errorf("StateScrap.String() = %q, want SCRAP", StateScrap.String())
	}
	if State(0x1e).String() != "STATE_0x1e" {
		t.Errorf("State(0x1e).String() = %q", State(0x1e).String())
	}
}
