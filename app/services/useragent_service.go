package services

import "strings"

// Device type constants
const (
	DeviceBot     = "bot"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// ClientInfo is the classification of a User-Agent header
type ClientInfo struct {
	DeviceType string
	Browser    string
}

// ClassifyUserAgent derives a coarse device type and browser family from a
// User-Agent header. The goal is dashboard breakdowns, not fingerprinting, so
// a handful of substring checks is enough. Order matters: bots first (many
// crawler UAs impersonate browsers), then tablets before mobiles (Android
// tablets carry "Android" without "Mobile").
func ClassifyUserAgent(userAgent string) ClientInfo {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return ClientInfo{DeviceType: DeviceDesktop, Browser: "Unknown"}
	}

	info := ClientInfo{
		DeviceType: classifyDevice(ua),
		Browser:    classifyBrowser(ua),
	}
	return info
}

var botMarkers = []string{"bot", "crawler", "spider", "curl/", "wget/", "python-requests", "go-http-client", "facebookexternalhit", "telegrambot"}

func classifyDevice(ua string) string {
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return DeviceBot
		}
	}
	switch {
	case strings.Contains(ua, "ipad"),
		strings.Contains(ua, "tablet"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return DeviceTablet
	case strings.Contains(ua, "mobile"),
		strings.Contains(ua, "iphone"),
		strings.Contains(ua, "android"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func classifyBrowser(ua string) string {
	switch {
	// Telegram's in-app browser identifies itself on both platforms
	case strings.Contains(ua, "telegram"):
		return "Telegram"
	case strings.Contains(ua, "edg/"), strings.Contains(ua, "edge/"):
		return "Edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "samsungbrowser"):
		return "Samsung Internet"
	case strings.Contains(ua, "firefox/"):
		return "Firefox"
	case strings.Contains(ua, "chrome/"), strings.Contains(ua, "crios/"):
		return "Chrome"
	case strings.Contains(ua, "safari/"):
		return "Safari"
	default:
		return "Unknown"
	}
}
