// Package platform maps media page URLs to the social platform that hosts them.
package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform identifies a supported media platform.
type Platform string

const (
	LinkedIn  Platform = "linkedin"
	YouTube   Platform = "youtube"
	Instagram Platform = "instagram"
	TikTok    Platform = "tiktok"
	Snapchat  Platform = "snapchat"
	Unknown   Platform = "unknown"
)

// String implements fmt.Stringer.
func (p Platform) String() string { return string(p) }

// Title is the display form used for fallback candidate titles.
func (p Platform) Title() string {
	switch p {
	case LinkedIn:
		return "LinkedIn"
	case YouTube:
		return "YouTube"
	case Instagram:
		return "Instagram"
	case TikTok:
		return "TikTok"
	case Snapchat:
		return "Snapchat"
	default:
		return "Unknown"
	}
}

type entry struct {
	domain   string
	platform Platform
}

// Matched in order; first hit wins. Overlapping hosts resolve by position.
var table = []entry{
	{"linkedin.com", LinkedIn},
	{"instagram.com", Instagram},
	{"youtube.com", YouTube},
	{"youtu.be", YouTube},
	{"tiktok.com", TikTok},
	{"snapchat.com", Snapchat},
}

var social = regexp.MustCompile(`(youtube\.com|youtu\.be|instagram\.com|tiktok\.com|linkedin\.com|snapchat\.com|twitter\.com|x\.com)`)

// Resolve returns the platform for rawURL. Malformed URLs and hosts outside
// the table resolve to Unknown.
func Resolve(rawURL string) Platform {
	host := Host(rawURL)
	if host == "" {
		return Unknown
	}
	for _, e := range table {
		if strings.Contains(host, e.domain) {
			return e.platform
		}
	}
	return Unknown
}

// Host returns the lower-cased host of rawURL without a leading "www.",
// or "" when rawURL is not an absolute URL.
func Host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// IsSocial reports whether rawURL mentions any known social domain. It is a
// superset of the Resolve table and matches against the whole URL.
func IsSocial(rawURL string) bool {
	return social.MatchString(strings.ToLower(rawURL))
}

// Media CDNs of the social platforms. Their URLs are already direct links.
var cdnDomains = []string{
	"cdninstagram.com",
	"fbcdn.net",
	"googlevideo.com",
	"ytimg.com",
	"tiktokcdn.com",
	"tiktokcdn-us.com",
	"tiktokv.com",
	"licdn.com",
	"sc-cdn.net",
	"snapchat-cdn.com",
	"twimg.com",
}

// IsCDN reports whether rawURL is served from a known platform media CDN.
func IsCDN(rawURL string) bool {
	host := Host(rawURL)
	if host == "" {
		return false
	}
	for _, d := range cdnDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Platforms lists the implemented platforms in table order.
func Platforms() []Platform {
	seen := make(map[Platform]bool)
	var out []Platform
	for _, e := range table {
		if !seen[e.platform] {
			seen[e.platform] = true
			out = append(out, e.platform)
		}
	}
	return out
}
