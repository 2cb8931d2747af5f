package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

type claims struct {
	UserID  *int64  `json:"curr_user,omitempty"`
	Flashes []Flash `json:"_flashes,omitempty"`
	jwt.RegisteredClaims
}

// Codec turns sessions into signed HS256 tokens and back.
type Codec struct {
	secret []byte
	ttl    time.Duration // zero keeps the cookie for the browser session
	secure bool
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration, secure bool) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Encode signs the session state.
func (c *Codec) Encode(s *Session) (string, error) {
	now := c.now().UTC()
	cl := claims{
		UserID:  s.userID,
		Flashes: s.flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		cl.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns its state.  Anything that fails
// verification, including an expired token, yields an empty session.
func (c *Codec) Decode(raw string) *Session {
	if raw == "" {
		return &Session{}
	}
	var cl claims
	tok, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil || !tok.Valid {
		return &Session{}
	}
	return &Session{userID: cl.UserID, flashes: cl.Flashes}
}

// Load reads the session cookie from r.
func (c *Codec) Load(r *http.Request) *Session {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return &Session{}
	}
	return c.Decode(ck.Value)
}

// Cookie builds the Set-Cookie value for s.  An empty session expires the
// cookie instead of storing an empty token.
func (c *Codec) Cookie(s *Session) (*http.Cookie, error) {
	ck := &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.empty() {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		return ck, nil
	}
	raw, err := c.Encode(s)
	if err != nil {
		return nil, err
	}
	ck.Value = raw
	if c.ttl > 0 {
		ck.Expires = c.now().Add(c.ttl)
		ck.MaxAge = int(c.ttl.Seconds())
	}
	return ck, nil
}
