package browser

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCaptcha    BlockType = "captcha"
	BlockCloudflare BlockType = "cloudflare"
	BlockJSShell    BlockType = "js_shell"
)

// DetectBlock checks a fetched page for signs of anti-bot protection.
func DetectBlock(statusCode int, header http.Header, body []byte) (bool, BlockType) {
	// Cloudflare: 403/503 with cf-* headers.
	if statusCode == 403 || statusCode == 503 {
		if header.Get("cf-ray") != "" || header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	// Cloudflare challenge page markers.
	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockCloudflare
	}

	// Captcha markers, including the enable-JS interstitial Google serves
	// in front of its sorry page.
	if strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") ||
		strings.Contains(lower, "enablejs") {
		return true, BlockCaptcha
	}

	// JS-only shell: very small body with noscript or meta refresh.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, "meta http-equiv=\"refresh\"") {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
