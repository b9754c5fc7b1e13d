package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CookieConfig names the session cookies and how they are signed.
type CookieConfig struct {
	Primary string
	Legacy  []string
	// Secret signs cookie values as "<id>.<sig>". Empty accepts raw ids.
	Secret string
	Secure bool
}

// Names returns the recognised cookie names, primary first.
func (c CookieConfig) Names() []string {
	names := make([]string, 0, len(c.Legacy)+1)
	names = append(names, c.Primary)
	for _, n := range c.Legacy {
		if n != "" && n != c.Primary {
			names = append(names, n)
		}
	}
	return names
}

func (c CookieConfig) known(name string) bool {
	for _, n := range c.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// SessionIDsFromRequest returns every usable session id carried by the
// recognised cookies, primary name first.
func (c CookieConfig) SessionIDsFromRequest(r *http.Request) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, name := range c.Names() {
		cookie, err := r.Cookie(name)
		if err != nil {
			continue
		}
		id, ok := c.Verify(cookie.Value)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// SessionIDFromRequest returns the first usable session id among the
// recognised cookie names.
func (c CookieConfig) SessionIDFromRequest(r *http.Request) (string, bool) {
	ids := c.SessionIDsFromRequest(r)
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// Sign appends an HMAC signature to a session id when a secret is set.
func (c CookieConfig) Sign(sessionID string) string {
	if c.Secret == "" {
		return sessionID
	}
	return sessionID + "." + c.signature(sessionID)
}

// Verify checks a cookie value and returns the session id it carries.
func (c CookieConfig) Verify(value string) (string, bool) {
	if decoded, err := url.QueryUnescape(value); err == nil {
		value = decoded
	}
	if value == "" {
		return "", false
	}
	if c.Secret == "" {
		return value, true
	}

	dot := strings.LastIndexByte(value, '.')
	if dot <= 0 || dot == len(value)-1 {
		return "", false
	}
	id, sig := value[:dot], value[dot+1:]
	if !hmac.Equal([]byte(sig), []byte(c.signature(id))) {
		return "", false
	}
	return id, true
}

func (c CookieConfig) signature(id string) string {
	mac := hmac.New(sha256.New, []byte(c.Secret))
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SessionCookie builds the primary cookie for a session.
func (c CookieConfig) SessionCookie(sessionID string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     c.Primary,
		Value:    c.Sign(sessionID),
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookies expires the primary and legacy cookies.
func (c CookieConfig) ClearCookies() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(c.Legacy)+1)
	for _, name := range c.Names() {
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return cookies
}
