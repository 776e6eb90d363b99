// internal/common/utils/jwt.go
// JWT token generation and validation

package utils

import (
    "errors"
    "fmt"
    "strconv"

    "github.com/golang-jwt/jwt/v4"
)

// Token types
const (
    TokenTypeAccess  = "access"
    TokenTypeRefresh = "refresh"
)

// JWTClaims is the decoded form of our tokens
type JWTClaims struct {
    UserID   int64  `json:"user_id"`
    Email    string `json:"email"`
    UserType string `json:"user_type"` // customer, admin or superadmin
    Active   bool   `json:"active"`
    Type     string `json:"type"`      // "access" or "refresh"
    ID       string `json:"jti"`
    // Standard JWT claims
    ExpiresAt int64  `json:"exp"`
    IssuedAt  int64  `json:"iat"`
    NotBefore int64  `json:"nbf"`
    Issuer    string `json:"iss"`
    Subject   string `json:"sub"`
}

// GenerateJWT creates a new HS256 signed token
func GenerateJWT(claims *JWTClaims, secret string) (string, error) {
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "user_id":   fmt.Sprintf("%d", claims.UserID),
        "email":     claims.Email,
        "user_type": claims.UserType,
        "active":    claims.Active,
        "type":      claims.Type,
        "jti":       claims.ID,
        "exp":       claims.ExpiresAt,
        "iat":       claims.IssuedAt,
        "nbf":       claims.NotBefore,
        "iss":       claims.Issuer,
        "sub":       claims.Subject,
    })

    tokenString, err := token.SignedString([]byte(secret))
    if err != nil {
        return "", fmt.Errorf("failed to sign token: %w", err)
    }

    return tokenString, nil
}

// ValidateJWT validates a JWT token and returns claims
func ValidateJWT(tokenString string, secret string) (*JWTClaims, error) {
    token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
        if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
        }
        return []byte(secret), nil
    })

    if err != nil {
        return nil, err
    }

    claims, ok := token.Claims.(jwt.MapClaims)
    if !ok || !token.Valid {
        return nil, errors.New("invalid token")
    }

    userIDStr, ok := claims["user_id"].(string)
    if !ok {
        return nil, errors.New("invalid user_id in token")
    }

    userID, err := strconv.ParseInt(userIDStr, 10, 64)
    if err != nil {
        return nil, errors.New("invalid user_id format")
    }

    active, _ := claims["active"].(bool)

    return &JWTClaims{
        UserID:    userID,
        Email:     getStringClaim(claims, "email"),
        UserType:  getStringClaim(claims, "user_type"),
        Active:    active,
        Type:      getStringClaim(claims, "type"),
        ID:        getStringClaim(claims, "jti"),
        ExpiresAt: getInt64Claim(claims, "exp"),
        IssuedAt:  getInt64Claim(claims, "iat"),
        NotBefore: getInt64Claim(claims, "nbf"),
        Issuer:    getStringClaim(claims, "iss"),
        Subject:   getStringClaim(claims, "sub"),
    }, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
    if val, ok := claims[key].(string); ok {
        return val
    }
    return ""
}

func getInt64Claim(claims jwt.MapClaims, key string) int64 {
    if val, ok := claims[key].(float64); ok {
        return int64(val)
    }
    return 0
}
