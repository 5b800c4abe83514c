package credentials

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Cookie is the persisted form of a cookie received from the server.
type Cookie struct {
	// URL is the request URL the cookie was set on, without query.
	URL      string        `json:"url"`
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Expires  time.Time     `json:"expires"` // zero for session cookies
	Secure   bool          `json:"secure,omitempty"`
	HttpOnly bool          `json:"http_only,omitempty"`
	SameSite http.SameSite `json:"same_site,omitempty"`
}

func (c Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

func (c Cookie) key() string {
	domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
	if domain == "" {
		if u, err := url.Parse(c.URL); err == nil {
			domain = strings.ToLower(u.Hostname())
		}
	}
	return c.Name + "|" + domain + "|" + c.Path
}

func (c Cookie) httpCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: c.SameSite,
	}
}

func liveCookies(cookies []Cookie, now time.Time) []Cookie {
	live := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		if !c.expired(now) {
			live = append(live, c)
		}
	}
	return live
}

// Jar is an http.CookieJar that remembers what the server set so it can be
// written to disk and replayed by a later process. The HttpOnly refresh
// cookie survives between invocations the way it survives page reloads in
// a browser.
//
// Cookie matching is delegated to net/http/cookiejar with the public suffix
// list; Jar only records.
type Jar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	cookies []Cookie
	changed bool
	now     func() time.Time
}

// NewJar creates a jar pre-populated with the unexpired cookies in saved.
// Entries with an unparsable URL are skipped.
func NewJar(saved []Cookie) (*Jar, error) {
	j := &Jar{now: time.Now}
	if err := j.reset(); err != nil {
		return nil, err
	}

	for _, c := range liveCookies(saved, j.now()) {
		u, err := url.Parse(c.URL)
		if err != nil || u.Host == "" {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{c.httpCookie()})
		j.cookies = append(j.cookies, c)
	}
	return j, nil
}

func (j *Jar) reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("cannot create cookie jar: %w", err)
	}
	j.jar = jar
	j.cookies = nil
	return nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	now := j.now()
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
	for _, hc := range cookies {
		c := Cookie{
			URL:      origin,
			Name:     hc.Name,
			Value:    hc.Value,
			Path:     hc.Path,
			Domain:   hc.Domain,
			Secure:   hc.Secure,
			HttpOnly: hc.HttpOnly,
			SameSite: hc.SameSite,
		}
		if c.Path == "" || c.Path[0] != '/' {
			c.Path = defaultPath(u.Path)
		}

		deleted := false
		switch {
		case hc.MaxAge < 0:
			deleted = true
		case hc.MaxAge > 0:
			c.Expires = now.Add(time.Duration(hc.MaxAge) * time.Second).UTC()
		case !hc.Expires.IsZero():
			c.Expires = hc.Expires.UTC()
			deleted = c.expired(now)
		}

		j.remove(c.key())
		if !deleted {
			j.cookies = append(j.cookies, c)
		}
		j.changed = true
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Saved returns the unexpired cookies in their persisted form.
func (j *Jar) Saved() []Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return liveCookies(j.cookies, j.now())
}

// Changed reports whether the server set or removed any cookie since the
// jar was created.
func (j *Jar) Changed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.changed
}

// Clear forgets every cookie.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.changed = true
	return j.reset()
}

func (j *Jar) remove(key string) {
	kept := j.cookies[:0]
	for _, c := range j.cookies {
		if c.key() != key {
			kept = append(kept, c)
		}
	}
	j.cookies = kept
}

// defaultPath is the RFC 6265 default-path of a request path.
func defaultPath(path string) string {
	if path == "" || path[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(path, "/")
	if i == 0 {
		return "/"
	}
	return path[:i]
}

var _ http.CookieJar = (*Jar)(nil)
