package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const AccessTokenCookie = "access_token"

// Manager writes the access-token cookie. Browsers get the same token the
// JSON body carries, so Auth accepts either.
type Manager struct {
	Domain string
	Secure bool
	now    func() time.Time
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure, now: time.Now}
}

// SetAccess stores token in an HttpOnly cookie expiring together with it.
func (m *Manager) SetAccess(c *gin.Context, token string, exp time.Time) {
	maxAge := int(exp.Sub(m.now()).Seconds())
	if maxAge <= 0 {
		m.Clear(c)
		return
	}
	http.SetCookie(c.Writer, m.cookie(token, exp, maxAge))
}

// Clear expires the cookie immediately.
func (m *Manager) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, m.cookie("", time.Unix(0, 0), -1))
}

func (m *Manager) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    value,
		Path:     "/",
		Domain:   m.Domain,
		Expires:  exp.UTC(),
		MaxAge:   maxAge,
		Secure:   m.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
