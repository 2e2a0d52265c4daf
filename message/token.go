package message

import "github.com/google/uuid"

// Token disambiguates delivery traffic among pipeline instances that share
// one receiving context. A sink's token must be unique per pipeline
// instantiation; a collision would misattribute one pipeline's results to
// another.
type Token string

// NoToken is the zero token. An identity carrying NoToken is incomplete and
// must be rejected (or completed) at setup time, never at delivery time.
const NoToken Token = ""

// TokenSource produces fresh correlation tokens. Injected so tests can use
// deterministic sequences; the default is collision-resistant (random
// 128-bit UUID), not a counter that resets across restarts.
type TokenSource func() Token

// NewToken is the default TokenSource.
func NewToken() Token {
	return Token(uuid.NewString())
}

// Valid reports whether the token is usable for message exchange.
func (t Token) Valid() bool {
	return t != NoToken
}

func (t Token) String() string {
	return string(t)
}
