package utils

import (
    "testing"
    "time"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken(testSecret, 42, "cliente", 30)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if tok.Token == "" {
        t.Fatal("empty token string")
    }
    if !tok.Exp.After(time.Now()) {
        t.Fatal("expiry not in the future")
    }

    claims, err := ParseAccessToken(testSecret, tok.Token)
    if err != nil {
        t.Fatalf("ParseAccessToken: %v", err)
    }
    if claims.UserID != 42 {
        t.Errorf("UserID = %d, want 42", claims.UserID)
    }
    if claims.Role != "cliente" {
        t.Errorf("Role = %q, want cliente", claims.Role)
    }
    if claims.Type != TokenTypeAccess {
        t.Errorf("Type = %q, want %q", claims.Type, TokenTypeAccess)
    }
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
    tok, err := NewRefreshToken(testSecret, 7, "propietario", 7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if _, err := ParseAccessToken(testSecret, tok.Token); err != ErrWrongTokenType {
        t.Fatalf("refresh token accepted as access: err = %v, want ErrWrongTokenType", err)
    }
    // The proper decoder still accepts it.
    claims, err := ParseRefreshToken(testSecret, tok.Token)
    if err != nil {
        t.Fatalf("ParseRefreshToken: %v", err)
    }
    if claims.UserID != 7 || claims.Type != TokenTypeRefresh {
        t.Fatalf("unexpected claims: %+v", claims)
    }
}

func TestParseRejectsWrongSecret(t *testing.T) {
    tok, err := NewAccessToken(testSecret, 1, "admin", 30)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if _, err := ParseAccessToken("other-secret", tok.Token); err != ErrInvalidToken {
        t.Fatalf("wrong secret: err = %v, want ErrInvalidToken", err)
    }
}

func TestParseRejectsGarbage(t *testing.T) {
    if _, err := ParseAccessToken(testSecret, "not.a.jwt"); err != ErrInvalidToken {
        t.Fatalf("garbage token: err = %v, want ErrInvalidToken", err)
    }
}

func TestHashRefreshRawIsStable(t *testing.T) {
    a := HashRefreshRaw("some-token")
    b := HashRefreshRaw("some-token")
    if a != b {
        t.Fatal("hash is not deterministic")
    }
    if len(a) != 64 {
        t.Fatalf("hex digest length = %d, want 64", len(a))
    }
    if a == HashRefreshRaw("other-token") {
        t.Fatal("different tokens hash equal")
    }
}
