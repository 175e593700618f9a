package auth

import (
  "errors"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")

// DownloadClaims bind a signed link to one artifact of one report session.
type DownloadClaims struct {
  SessionID string `json:"sid"`
  Kind      string `json:"knd"`
  jwt.RegisteredClaims
}

func (c DownloadClaims) Allows(sessionID, kind string) bool {
  return c.SessionID == sessionID && c.Kind == kind
}

func GenerateToken(secret []byte, claims DownloadClaims, ttl time.Duration) (string, error) {
  now := time.Now()
  claims.RegisteredClaims = jwt.RegisteredClaims{
    ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
    IssuedAt:  jwt.NewNumericDate(now),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString(secret)
}

func ParseToken(secret []byte, tokenString string) (*DownloadClaims, error) {
  token, err := jwt.ParseWithClaims(tokenString, &DownloadClaims{}, func(token *jwt.Token) (interface{}, error) {
    return secret, nil
  }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
  if err != nil {
    return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
  }
  claims, ok := token.Claims.(*DownloadClaims)
  if !ok || !token.Valid {
    return nil, ErrInvalidToken
  }
  return claims, nil
}

// HashKey and CheckKey guard the operator endpoints with a bcrypt-hashed key.
func HashKey(key string) (string, error) {
  hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
  if err != nil {
    return "", err
  }
  return string(hashed), nil
}

func CheckKey(hash, key string) error {
  return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}
