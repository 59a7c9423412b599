package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidRecord is returned by a [Codec] when the stored bytes do not hold
// a complete session, and by [Manager.Save] when asked to store one.
var ErrInvalidRecord = errors.New("invalid session record")

// Codec converts a [Session] to and from its persisted form.
type Codec interface {
	Encode(s Session) ([]byte, error)
	Decode(data []byte) (Session, error)
}

// JSONCodec stores the session as a plain JSON object.
type JSONCodec struct{}

// Encode marshals s as JSON.
func (JSONCodec) Encode(s Session) ([]byte, error) {
	return json.Marshal(s)
}

// Decode unmarshals data and rejects records missing required fields.
func (JSONCodec) Decode(data []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !s.Valid() {
		return Session{}, ErrInvalidRecord
	}
	return s, nil
}

const signedIssuer = "exitpass"

type sessionClaims struct {
	Session Session `json:"ses"`
	jwt.RegisteredClaims
}

// SignedCodec stores the session inside an HS256 JWT. A record whose signature
// does not verify decodes to [ErrInvalidRecord], so an edited role can never
// be read back.
type SignedCodec struct {
	key []byte
}

// NewSignedCodec returns a [SignedCodec] using key for HS256.
func NewSignedCodec(key []byte) (*SignedCodec, error) {
	if len(key) < 16 {
		return nil, errors.New("signing key must be at least 16 bytes")
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &SignedCodec{key: k}, nil
}

// Encode signs s.
func (c *SignedCodec) Encode(s Session) ([]byte, error) {
	claims := sessionClaims{
		Session: s,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   signedIssuer,
			Subject:  s.UserID,
			IssuedAt: jwt.NewNumericDate(time.UnixMilli(s.LoggedInAt)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return nil, err
	}
	return []byte(token), nil
}

// Decode verifies the signature and returns the embedded session.
func (c *SignedCodec) Decode(data []byte) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(
		string(data),
		&claims,
		func(*jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signedIssuer),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !claims.Session.Valid() || claims.Subject != claims.Session.UserID {
		return Session{}, ErrInvalidRecord
	}
	return claims.Session, nil
}
