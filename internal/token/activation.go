// Package token issues and checks the signed activation tokens handed
// to business owners after approval.  A token is bound to one vendor
// request and expires after a configured number of days; single use
// is enforced by the activation transaction in the store, not by the
// token itself.
package token

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrExpired is returned for a structurally valid token whose
// validity window has passed.  It is deliberately distinct from the
// invalid-signature error so callers can message the two differently.
var ErrExpired = errors.New("activation token expired")

// ErrInvalid covers bad signatures, malformed tokens and tokens not
// issued for activation.
var ErrInvalid = errors.New("activation token invalid")

// NewActivation signs an HS256 JWT granting the holder the right to
// activate the given vendor request until the TTL lapses.
func NewActivation(secret string, requestID uint64, ttlDays int) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "sub": fmt.Sprintf("%d", requestID),
        "use": "vendor_activation",
        "iat": now.Unix(),
        "exp": now.AddDate(0, 0, ttlDays).Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// ParseActivation validates the token and returns the vendor request
// id it is bound to.  Expired tokens yield ErrExpired; any other
// defect yields ErrInvalid.
func ParseActivation(secret, raw string) (uint64, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalid
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return 0, ErrExpired
        }
        return 0, ErrInvalid
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return 0, ErrInvalid
    }
    if use, _ := claims["use"].(string); use != "vendor_activation" {
        return 0, ErrInvalid
    }
    sub, _ := claims["sub"].(string)
    var id uint64
    if _, err := fmt.Sscanf(sub, "%d", &id); err != nil || id == 0 {
        return 0, ErrInvalid
    }
    return id, nil
}
