package analytics

import (
	"net/url"
	"strings"

	"github.com/VelisCore/velink/internal/shortener"
)

// Referrer classes. Coarse on purpose: the raw Referer header is
// classified at the edge and then dropped, never stored.
const (
	ReferrerDirect   = "direct"
	ReferrerSearch   = "search"
	ReferrerSocial   = "social"
	ReferrerInternal = "internal"
	ReferrerOther    = "other"
)

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

var searchHosts = []string{
	"google.", "bing.com", "duckduckgo.com", "yahoo.", "baidu.com",
	"yandex.", "ecosia.org", "qwant.com", "startpage.com",
}

var socialHosts = []string{
	"facebook.com", "fb.com", "twitter.com", "x.com", "t.co",
	"instagram.com", "linkedin.com", "reddit.com", "tiktok.com",
	"youtube.com", "youtu.be", "pinterest.", "whatsapp.com",
	"telegram.org", "t.me", "mastodon.", "threads.net",
}

var botMarkers = []string{
	"bot", "crawler", "spider", "slurp", "curl/", "wget/",
	"python-requests", "go-http-client", "headless",
}

// ClassifyRequest turns raw request headers into the coarse click
// context that gets stored. ownHost marks same-site navigation.
func ClassifyRequest(referrer, userAgent, ownHost string) shortener.ClickContext {
	return shortener.ClickContext{
		ReferrerClass: ClassifyReferrer(referrer, ownHost),
		Device:        ClassifyDevice(userAgent),
		Browser:       ClassifyBrowser(userAgent),
	}
}

// ClassifyReferrer maps a Referer header to its class. Empty or
// unparseable referrers count as direct traffic.
func ClassifyReferrer(referrer, ownHost string) string {
	if strings.TrimSpace(referrer) == "" {
		return ReferrerDirect
	}

	u, err := url.Parse(referrer)
	if err != nil || u.Host == "" {
		return ReferrerDirect
	}

	host := strings.ToLower(u.Hostname())

	if ownHost != "" && host == strings.ToLower(ownHost) {
		return ReferrerInternal
	}

	for _, s := range searchHosts {
		if strings.Contains(host, s) {
			return ReferrerSearch
		}
	}

	for _, s := range socialHosts {
		if host == s || strings.HasSuffix(host, "."+s) || strings.Contains(host, s) {
			return ReferrerSocial
		}
	}

	return ReferrerOther
}

// ClassifyDevice maps a User-Agent to a coarse device class.
func ClassifyDevice(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return DeviceUnknown
	}

	ua := strings.ToLower(userAgent)

	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return DeviceBot
		}
	}

	// Tablets report "mobile" too, so check them first.
	if strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet") || strings.Contains(ua, "kindle") {
		return DeviceTablet
	}

	if strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android") {
		return DeviceMobile
	}

	return DeviceDesktop
}

// ClassifyBrowser maps a User-Agent to a browser family. Order matters:
// almost everything claims to be Safari and Chrome.
func ClassifyBrowser(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}

	ua := strings.ToLower(userAgent)

	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return "bot"
		}
	}

	switch {
	case strings.Contains(ua, "edg/"), strings.Contains(ua, "edge/"):
		return "edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		return "opera"
	case strings.Contains(ua, "samsungbrowser"):
		return "samsung"
	case strings.Contains(ua, "firefox/"), strings.Contains(ua, "fxios"):
		return "firefox"
	case strings.Contains(ua, "chrome/"), strings.Contains(ua, "crios"):
		return "chrome"
	case strings.Contains(ua, "safari/"):
		return "safari"
	default:
		return "other"
	}
}
