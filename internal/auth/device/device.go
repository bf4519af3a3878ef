// Package device derives a human-readable device name from a User-Agent
// string so users can tell their login sessions apart.
package device

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown device"

// NameFromUserAgent renders a short label like "Chrome on Linux" or
// "Mobile Safari on iPhone".
func NameFromUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return unknownDevice
	}

	ua := useragent.New(raw)
	if ua.Bot() {
		return "Bot"
	}

	browser, _ := ua.Browser()
	platform := ua.Platform()
	if ua.Mobile() && ua.Model() != "" {
		platform = ua.Model()
	} else if ua.OS() != "" {
		platform = ua.OS()
	}

	switch {
	case browser != "" && platform != "":
		return fmt.Sprintf("%s on %s", browser, platform)
	case browser != "":
		return browser
	case platform != "":
		return platform
	default:
		return unknownDevice
	}
}
