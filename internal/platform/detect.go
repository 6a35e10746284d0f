package platform

import (
	"net/url"
	"strings"
)

type Platform string

const (
	YouTube  Platform = "youtube"
	Facebook Platform = "facebook"
	TikTok   Platform = "tiktok"
	Unknown  Platform = "unknown"
	None     Platform = "none"
)

// Chips lists the platforms that have an indicator in the UI, in display order.
var Chips = []Platform{YouTube, Facebook, TikTok}

// hostRules is matched in order against the lowercased hostname.
var hostRules = []struct {
	fragment string
	platform Platform
}{
	{"youtube.com", YouTube},
	{"youtu.be", YouTube},
	{"facebook.com", Facebook},
	{"fb.watch", Facebook},
	{"tiktok.com", TikTok},
}

// schemes that are meaningless without a host
var networkSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
}

const defaultScheme = "https://"

// Detect classifies a raw value by hostname. Values without a scheme are
// retried with https:// prepended. It never fails: anything unparseable is
// Unknown.
func Detect(value string) Platform {
	if value == "" {
		return Unknown
	}

	u, ok := parseAbsolute(value)
	if !ok {
		u, ok = parseAbsolute(defaultScheme + value)
		if !ok {
			return Unknown
		}
	}

	host := strings.ToLower(u.Hostname())
	for _, rule := range hostRules {
		if strings.Contains(host, rule.fragment) {
			return rule.platform
		}
	}

	return Unknown
}

// FromInput trims the value and short-circuits blank input to None before
// running Detect.
func FromInput(value string) Platform {
	value = strings.TrimSpace(value)
	if value == "" {
		return None
	}
	return Detect(value)
}

// LooksLikeURL reports whether value is an absolute URL. Unlike Detect it
// does not add a missing scheme.
func LooksLikeURL(value string) bool {
	_, ok := parseAbsolute(value)
	return ok
}

func parseAbsolute(value string) (*url.URL, bool) {
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() {
		return nil, false
	}
	if networkSchemes[strings.ToLower(u.Scheme)] && u.Host == "" {
		return nil, false
	}
	return u, true
}

// Parse maps a wire value back onto a Platform.
func Parse(s string) (Platform, bool) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case YouTube, Facebook, TikTok, Unknown, None:
		return p, true
	default:
		return Unknown, false
	}
}

// Known reports whether p names a real platform rather than unknown/none.
func (p Platform) Known() bool {
	switch p {
	case YouTube, Facebook, TikTok:
		return true
	}
	return false
}

// Label is the display name shown in status messages.
func (p Platform) Label() string {
	switch p {
	case YouTube:
		return "YouTube"
	case Facebook:
		return "Facebook"
	case TikTok:
		return "TikTok"
	case None:
		return "None"
	default:
		return "unknown"
	}
}

func (p Platform) String() string {
	return string(p)
}
