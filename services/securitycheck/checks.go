package securitycheck

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Check is one independent pass/fail test over a Target.
type Check struct {
	ID       string
	Name     string
	Severity string
	Run      func(t *Target) (passed bool, detail string)
}

func headerCheck(id, name, severity, header string) Check {
	return Check{ID: id, Name: name, Severity: severity, Run: func(t *Target) (bool, string) {
		if v := t.Header.Get(header); v != "" {
			return true, header + ": " + v
		}
		return false, header + " header is missing"
	}}
}

func cookieCheck(id, name, severity string, ok func(*http.Cookie) bool) Check {
	return Check{ID: id, Name: name, Severity: severity, Run: func(t *Target) (bool, string) {
		var bad []string
		for _, c := range t.Cookies {
			if !ok(c) {
				bad = append(bad, c.Name)
			}
		}
		if len(bad) > 0 {
			return false, "cookies: " + strings.Join(bad, ", ")
		}
		return true, fmt.Sprintf("%d cookies checked", len(t.Cookies))
	}}
}

func patternCheck(id, name, severity string, re *regexp.Regexp, found string) Check {
	return Check{ID: id, Name: name, Severity: severity, Run: func(t *Target) (bool, string) {
		if m := re.FindString(t.Body); m != "" {
			return false, found + ": " + redact(m)
		}
		return true, "none found"
	}}
}

// redact keeps enough of a match to locate it without echoing a secret.
func redact(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 12 {
		return s
	}
	return s[:8] + "..."
}

var (
	versionPattern   = regexp.MustCompile(`\d+\.\d+`)
	apiKeyPattern    = regexp.MustCompile(`AKIA[0-9A-Z]{16}|AIza[0-9A-Za-z_\-]{35}|sk_live_[0-9a-zA-Z]{24,}|(?i)(?:api[_-]?key|client[_-]?secret)["']?\s*[:=]\s*["'][A-Za-z0-9_\-]{16,}["']`)
	jwtPattern       = regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)
	privateKey       = regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)
	storageToken     = regexp.MustCompile(`(?i)localStorage\.setItem\(\s*["'][^"']*(?:token|jwt|auth|session)[^"']*["']`)
	evalPattern      = regexp.MustCompile(`\beval\s*\(|new\s+Function\s*\(`)
	sourceMapPattern = regexp.MustCompile(`//[#@]\s*sourceMappingURL=`)
	dirListing       = regexp.MustCompile(`(?i)<title>\s*Index of /|<h1>\s*Index of /`)
)

func passwordInputs(t *Target) []*html.Node {
	var out []*html.Node
	for _, in := range t.elements("input") {
		if typ, _ := attr(in, "type"); strings.EqualFold(typ, "password") {
			out = append(out, in)
		}
	}
	return out
}

// formOf returns the enclosing form of n, if any.
func formOf(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "form" {
			return p
		}
	}
	return nil
}

// Checks is the fixed list run against every target.
var Checks = []Check{
	{ID: "https", Name: "Served over HTTPS", Severity: SeverityHigh, Run: func(t *Target) (bool, string) {
		if t.URL.Scheme == "https" {
			return true, "final URL uses https"
		}
		return false, "final URL uses " + t.URL.Scheme
	}},
	{ID: "hsts", Name: "Strict-Transport-Security set", Severity: SeverityHigh, Run: func(t *Target) (bool, string) {
		v := t.Header.Get("Strict-Transport-Security")
		if strings.Contains(strings.ToLower(v), "max-age=") && !strings.Contains(v, "max-age=0") {
			return true, v
		}
		return false, "no HSTS policy with a positive max-age"
	}},
	headerCheck("csp", "Content-Security-Policy set", SeverityHigh, "Content-Security-Policy"),
	{ID: "csp-unsafe", Name: "CSP avoids unsafe-inline and unsafe-eval", Severity: SeverityMedium, Run: func(t *Target) (bool, string) {
		v := t.Header.Get("Content-Security-Policy")
		for _, kw := range []string{"'unsafe-inline'", "'unsafe-eval'"} {
			if strings.Contains(v, kw) {
				return false, "policy allows " + kw
			}
		}
		return true, "no unsafe keywords"
	}},
	{ID: "framing", Name: "Clickjacking protection", Severity: SeverityMedium, Run: func(t *Target) (bool, string) {
		if v := t.Header.Get("X-Frame-Options"); v != "" {
			return true, "X-Frame-Options: " + v
		}
		if strings.Contains(t.Header.Get("Content-Security-Policy"), "frame-ancestors") {
			return true, "CSP frame-ancestors"
		}
		return false, "neither X-Frame-Options nor frame-ancestors is set"
	}},
	{ID: "nosniff", Name: "X-Content-Type-Options nosniff", Severity: SeverityLow, Run: func(t *Target) (bool, string) {
		if strings.EqualFold(t.Header.Get("X-Content-Type-Options"), "nosniff") {
			return true, "nosniff"
		}
		return false, "X-Content-Type-Options is not nosniff"
	}},
	headerCheck("referrer-policy", "Referrer-Policy set", SeverityLow, "Referrer-Policy"),
	headerCheck("permissions-policy", "Permissions-Policy set", SeverityLow, "Permissions-Policy"),
	cookieCheck("cookie-secure", "Cookies marked Secure", SeverityHigh, func(c *http.Cookie) bool { return c.Secure }),
	cookieCheck("cookie-httponly", "Cookies marked HttpOnly", SeverityMedium, func(c *http.Cookie) bool { return c.HttpOnly }),
	cookieCheck("cookie-samesite", "Cookies declare SameSite", SeverityLow, func(c *http.Cookie) bool {
		return c.SameSite != 0 && c.SameSite != http.SameSiteDefaultMode
	}),
	{ID: "cors", Name: "CORS is not open to every origin", Severity: SeverityMedium, Run: func(t *Target) (bool, string) {
		if t.Header.Get("Access-Control-Allow-Origin") == "*" {
			if strings.EqualFold(t.Header.Get("Access-Control-Allow-Credentials"), "true") {
				return false, "wildcard origin with credentials"
			}
			return false, "Access-Control-Allow-Origin: *"
		}
		return true, "no wildcard origin"
	}},
	{ID: "server-banner", Name: "Server banner hides versions", Severity: SeverityLow, Run: func(t *Target) (bool, string) {
		if v := t.Header.Get("X-Powered-By"); v != "" {
			return false, "X-Powered-By: " + v
		}
		if v := t.Header.Get("Server"); versionPattern.MatchString(v) {
			return false, "Server: " + v
		}
		return true, "no version disclosed"
	}},
	{ID: "inline-handlers", Name: "No inline event handlers", Severity: SeverityMedium, Run: func(t *Target) (bool, string) {
		count := 0
		walk(t.Doc, func(n *html.Node) {
			for _, a := range n.Attr {
				if strings.HasPrefix(strings.ToLower(a.Key), "on") {
					count++
				}
			}
		})
		if count > 0 {
			return false, fmt.Sprintf("%d inline handler attributes", count)
		}
		return true, "none found"
	}},
	{ID: "inline-scripts", Name: "No inline scripts", Severity: SeverityLow, Run: func(t *Target) (bool, string) {
		if n := len(t.scripts()); n > 0 {
			return false, fmt.Sprintf("%d inline scripts", n)
		}
		return true, "none found"
	}},
	{ID: "mixed-content", Name: "No mixed content", Severity: SeverityHigh, Run: func(t *Target) (bool, string) {
		if t.URL.Scheme != "https" {
			return true, "page is not served over https"
		}
		var found []string
		walk(t.Doc, func(n *html.Node) {
			key := "src"
			if n.Data == "link" {
				key = "href"
			}
			if v, ok := attr(n, key); ok && strings.HasPrefix(strings.ToLower(v), "http://") {
				found = append(found, v)
			}
		})
		if len(found) > 0 {
			return false, "insecure resource: " + found[0]
		}
		return true, "all resources use https"
	}},
	patternCheck("exposed-keys", "No API keys in page source", SeverityHigh, apiKeyPattern, "possible key"),
	patternCheck("exposed-jwt", "No JWTs in page source", SeverityHigh, jwtPattern, "token"),
	patternCheck("private-key", "No private keys in page source", SeverityHigh, privateKey, "key block"),
	patternCheck("storage-token", "Tokens not kept in localStorage", SeverityMedium, storageToken, "script stores"),
	{ID: "eval", Name: "No eval in inline scripts", Severity: SeverityMedium, Run: func(t *Target) (bool, string) {
		for _, s := range t.scripts() {
			if m := evalPattern.FindString(s); m != "" {
				return false, "uses " + strings.TrimSpace(m)
			}
		}
		return true, "none found"
	}},
	{ID: "source-maps", Name: "Source maps not published", Severity: SeverityLow, Run: func(t *Target) (bool, string) {
		if v := t.Header.Get("SourceMap"); v != "" {
			return false, "SourceMap header: " + v
		}
		if sourceMapPattern.MatchString(t.Body) {
			return false, "sourceMappingURL comment in page"
		}
		return true, "none found"
	}},
	{ID: "password-transport", Name: "Password forms post over HTTPS", Severity: SeverityHigh, Run: func(t *Target) (bool, string) {
		for _, in := range passwordInputs(t) {
			form := formOf(in)
			if form == nil {
				continue
			}
			action, _ := attr(form, "action")
			relative := !strings.Contains(action, "://")
			if strings.HasPrefix(strings.ToLower(action), "http://") || relative && t.URL.Scheme != "https" {
				return false, "password form submits over http"
			}
			if method, _ := attr(form, "method"); !strings.EqualFold(method, "post") {
				return false, "password form uses GET"
			}
		}
		return true, fmt.Sprintf("%d password fields checked", len(passwordInputs(t)))
	}},
	{ID: "password-autocomplete", Name: "Password fields declare autocomplete", Severity: SeverityLow, Run: func(t *Target) (bool, string) {
		for _, in := range passwordInputs(t) {
			if _, ok := attr(in, "autocomplete"); !ok {
				name, _ := attr(in, "name")
				return false, "field without autocomplete: " + name
			}
		}
		return true, "ok"
	}},
	{ID: "directory-listing", Name: "No directory listing", Severity: SeverityMedium, Run: func(t *Target) (bool, string) {
		if dirListing.MatchString(t.Body) {
			return false, "page looks like an auto-generated index"
		}
		return true, "none found"
	}},
}
