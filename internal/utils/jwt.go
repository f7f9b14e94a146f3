package utils

import (
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT together with its expiry. The Token field
// is the serialized JWT placed in the Authorization header.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claims
// carry the user id as subject, the user's role, the expiration and the
// issued-at time. ttlHours controls how long the token stays valid.
func NewAccessToken(secret string, userID uint64, role string, ttlHours int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlHours) * time.Hour)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}
