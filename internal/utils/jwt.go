package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/sha256" // SHA-256 hashing for stored refresh tokens
    "encoding/hex"  // hex encoding of digests
    "errors"        // sentinel errors for token validation
    "time"          // expiration handling

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Token type claim values.  Every token this service issues carries a
// "type" claim so that an access token can never be replayed against the
// refresh endpoint and vice versa.
const (
    TokenTypeAccess  = "access"
    TokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when a structurally valid token carries a
// "type" claim that does not match the decoder it was handed to.
var ErrWrongTokenType = errors.New("wrong token type")

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim-shape validation.
var ErrInvalidToken = errors.New("invalid token")

// SignedToken represents a serialized JWT along with its expiry.  The Token
// field contains the JWT string; Exp stores the UTC expiration time.
type SignedToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// TokenClaims carries the application claims extracted from a validated
// token: the user ID (sub), the role, and the token type.
type TokenClaims struct {
    UserID uint64
    Role   string
    Type   string
}

// NewAccessToken builds and signs an HS256 JWT for a user with type=access.
// The ttl is expressed in minutes.  Claims: sub, role, type, exp, iat.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (SignedToken, error) {
    return newToken(secret, userID, role, TokenTypeAccess, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken builds and signs an HS256 JWT for a user with type=refresh.
// The ttl is expressed in days.  Refresh tokens are additionally persisted
// as SHA-256 hashes so they can be rotated and revoked server side.
func NewRefreshToken(secret string, userID uint64, role string, ttlDays int) (SignedToken, error) {
    return newToken(secret, userID, role, TokenTypeRefresh, time.Duration(ttlDays)*24*time.Hour)
}

func newToken(secret string, userID uint64, role, typ string, ttl time.Duration) (SignedToken, error) {
    exp := time.Now().UTC().Add(ttl)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "type": typ,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SignedToken{}, err
    }
    return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates a serialized JWT and requires type=access.
func ParseAccessToken(secret, raw string) (TokenClaims, error) {
    return parseTyped(secret, raw, TokenTypeAccess)
}

// ParseRefreshToken validates a serialized JWT and requires type=refresh.
func ParseRefreshToken(secret, raw string) (TokenClaims, error) {
    return parseTyped(secret, raw, TokenTypeRefresh)
}

// parseTyped performs signature and expiry validation, then checks the
// "type" claim against the expected value.  A mismatched type yields
// ErrWrongTokenType so callers can distinguish cross-use from forgery.
func parseTyped(secret, raw, wantType string) (TokenClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything other than HMAC.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return TokenClaims{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return TokenClaims{}, ErrInvalidToken
    }
    sub, ok := claims["sub"].(float64)
    if !ok {
        return TokenClaims{}, ErrInvalidToken
    }
    role, _ := claims["role"].(string)
    typ, _ := claims["type"].(string)
    if typ != wantType {
        return TokenClaims{}, ErrWrongTokenType
    }
    return TokenClaims{UserID: uint64(sub), Role: role, Type: typ}, nil
}

// HashRefreshRaw returns the SHA-256 hash of a serialized refresh token as
// a hex string.  Only the hash is stored in the database so that stolen
// rows cannot be used to refresh sessions.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
