package utils // package utils provides helpers for token creation, hashing and codes

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256"    // SHA-256 hashing for refresh tokens
    "encoding/base64"  // URL-safe encoding for check-in codes
    "encoding/hex"     // hex encoding for refresh tokens
    "errors"        // sentinel errors for token verification
    "time"          // expiry computations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned by ParseCheckinToken when a token is
// malformed, signed with the wrong key or method, expired, or missing
// the expected claims.  Callers treat all of these identically so a
// single sentinel is enough.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header
// when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access
// tokens.  Raw is returned to the client; only its SHA-256 hash is
// persisted.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT
// includes the subject (sub), role, expiration (exp) and issued at (iat)
// claims.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw)
// and its expiration time.  The ttlDays parameter controls how many days
// the refresh token is valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a
// hex string.  Storing only the hash prevents attackers from using
// stolen database rows to refresh sessions.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// CheckinClaims are the claims embedded in a check-in token.  QRToken is
// the registration's private one-time code; RegistrationID lets the
// scanning endpoint avoid a table scan.  The same JWT secret signs
// access tokens and check-in tokens.
type CheckinClaims struct {
    QRToken        string // the one-time check-in code
    RegistrationID uint64 // owning registration
}

// NewCheckinToken signs a long-lived HS256 JWT embedding the
// registration's one-time code.  The ttlDays parameter is typically 30:
// the token must outlive the gap between registration and the event.
func NewCheckinToken(secret string, registrationID uint64, code string, ttlDays int) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "qr_token":        code,
        "registration_id": registrationID,
        "exp":             now.Add(time.Duration(ttlDays) * 24 * time.Hour).Unix(),
        "iat":             now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// ParseCheckinToken verifies the signature and expiry of a check-in
// token and extracts its claims.  Any failure, including a token signed
// with a non-HMAC method, yields ErrInvalidToken.
func ParseCheckinToken(secret, raw string) (CheckinClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return CheckinClaims{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return CheckinClaims{}, ErrInvalidToken
    }
    code, ok := claims["qr_token"].(string)
    if !ok || code == "" {
        return CheckinClaims{}, ErrInvalidToken
    }
    // Numeric claims decode as float64 from JSON.
    rid, ok := claims["registration_id"].(float64)
    if !ok || rid <= 0 {
        return CheckinClaims{}, ErrInvalidToken
    }
    return CheckinClaims{QRToken: code, RegistrationID: uint64(rid)}, nil
}

// NewCheckinCode returns a high-entropy, URL-safe one-time code used as
// the private QR identifier of a registration.  32 random bytes encode
// to 43 base64url characters.
func NewCheckinCode() (string, error) {
    b := make([]byte, 32)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return base64.RawURLEncoding.EncodeToString(b), nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
