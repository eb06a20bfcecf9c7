package securitycheck

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html"

	"careerhub-backend/errors"
)

// MaxBodyBytes bounds how much of the page is read.
const MaxBodyBytes = 2 << 20

// Target is everything the checks look at: one response and its parsed body.
type Target struct {
	URL     *url.URL
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Body    string
	Doc     *html.Node
}

// ParseURL accepts absolute http and https URLs only.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.WithHint(errors.Invalidf("url %q is not an absolute http(s) URL", raw),
			"example: https://example.com")
	}
	return u, nil
}

func refusePrivate(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return errors.Wrapf(errors.ErrForbidden, "refusing to connect to %s", ip)
	}
	return nil
}

// NewClient builds the fetch client. Unless allowPrivate is set, it refuses
// to dial loopback, private and link-local addresses.
func NewClient(timeout time.Duration, allowPrivate bool) *http.Client {
	dialer := &net.Dialer{Timeout: timeout}
	if !allowPrivate {
		dialer.Control = refusePrivate
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// Fetch loads u once and parses the body as HTML.
func Fetch(ctx context.Context, client *http.Client, u *url.URL) (*Target, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", "careerhub-security-check/1.0")

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, errors.ErrForbidden) {
			return nil, errors.WithHint(errors.Wrap(err, "fetch target"), "private and loopback addresses are not checked")
		}
		return nil, errors.Wrap(errors.Mark(err, errors.ErrServiceUnavailable), "fetch target")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrServiceUnavailable), "read target body")
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, errors.Wrap(err, "parse target html")
	}
	return &Target{
		URL:     resp.Request.URL,
		Status:  resp.StatusCode,
		Header:  resp.Header,
		Cookies: resp.Cookies(),
		Body:    string(body),
		Doc:     doc,
	}, nil
}

// walk calls fn for every element node in document order.
func walk(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// scripts returns the source of every inline script.
func (t *Target) scripts() []string {
	var out []string
	walk(t.Doc, func(n *html.Node) {
		if n.Data != "script" {
			return
		}
		if _, ok := attr(n, "src"); ok {
			return
		}
		if s := strings.TrimSpace(text(n)); s != "" {
			out = append(out, s)
		}
	})
	return out
}

func (t *Target) elements(tag string) []*html.Node {
	var out []*html.Node
	walk(t.Doc, func(n *html.Node) {
		if n.Data == tag {
			out = append(out, n)
		}
	})
	return out
}
