package auth

import (
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const rolePrefix = "ROLE_"

var ErrMissingToken = errors.New("missing_token")

// Claims is the claim set issued by the content backend.
type Claims struct {
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Verifier decodes backend tokens. With neither a secret nor a public key
// configured the signature is not checked and only the expiry is enforced,
// the backend remaining the authority on every call.
type Verifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
	now       func() time.Time
}

func NewVerifier(secret, publicKeyPEM, issuer string) (*Verifier, error) {
	v := &Verifier{issuer: issuer, now: time.Now}
	if secret != "" {
		v.secret = []byte(secret)
	}
	if publicKeyPEM != "" {
		key, err := ParseRSAPublicKey(publicKeyPEM)
		if err != nil {
			return nil, err
		}
		v.publicKey = key
	}
	return v, nil
}

// WithClock replaces the time source used for expiry checks.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

func (v *Verifier) Verifies() bool {
	return v.secret != nil || v.publicKey != nil
}

// Decode parses the token and rejects it when its exp lies in the past.
func (v *Verifier) Decode(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if v.Verifies() {
		return v.parseVerified(tokenString)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(v.now()) {
		return nil, jwt.ErrTokenExpired
	}
	return claims, nil
}

func (v *Verifier) parseVerified(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512"}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if v.secret == nil {
				return nil, jwt.ErrTokenUnverifiable
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			if v.publicKey == nil {
				return nil, jwt.ErrTokenUnverifiable
			}
			return v.publicKey, nil
		}
		return nil, jwt.ErrTokenSignatureInvalid
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func ParseRSAPublicKey(pemValue string) (*rsa.PublicKey, error) {
	if strings.TrimSpace(pemValue) == "" {
		return nil, errors.New("missing_public_key")
	}
	return jwt.ParseRSAPublicKeyFromPEM([]byte(pemValue))
}

// NormalizeRole strips the conventional ROLE_ prefix.
func NormalizeRole(role string) string {
	role = strings.TrimSpace(role)
	return strings.TrimPrefix(role, rolePrefix)
}

func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := NormalizeRole(role); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
