package extractor

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	ogImagePattern      = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:image["'][^>]*content=["']([^"']+)["']`)
	twitterImagePattern = regexp.MustCompile(`(?i)<meta[^>]*name=["']twitter:image["'][^>]*content=["']([^"']+)["']`)
	metaImagePattern    = regexp.MustCompile(`(?i)<meta[^>]*name=["']image["'][^>]*content=["']([^"']+)["']`)
	imgTagPattern       = regexp.MustCompile(`(?i)<img[^>]*src=["']([^"']+)["'][^>]*>`)
	srcAttrPattern      = regexp.MustCompile(`(?i)src=["']([^"']+)["']`)
	widthAttrPattern    = regexp.MustCompile(`(?i)width=["'](\d+)["']`)
	heightAttrPattern   = regexp.MustCompile(`(?i)height=["'](\d+)["']`)
)

// minImageSize は本文画像として採用する最小の幅・高さ（px）。
const minImageSize = 200

// imageDenylist はタグまたはURLに含まれる場合に除外する部分文字列。
// 大文字小文字を区別せずに照合する。
var imageDenylist = []string{
	"icon", "logo", "avatar", "profile", "thumb", "small",
	"favicon", "sprite", "button", "banner", "ad", "ads",
}

// trackingMarkers はトラッキング用画像URLに含まれる部分文字列。
var trackingMarkers = []string{"tracking", "analytics", "pixel"}

// extractFeaturedImage はアイキャッチ画像のURLを優先順位に従って返す。
// og:image → twitter:image → meta[name=image] → 本文の最初の有効なimg。
func extractFeaturedImage(html, baseURL string) *string {
	for _, p := range []*regexp.Regexp{ogImagePattern, twitterImagePattern, metaImagePattern} {
		if m := p.FindStringSubmatch(html); m != nil {
			resolved := resolveURL(m[1], baseURL)
			return &resolved
		}
	}

	for _, tag := range imgTagPattern.FindAllString(html, -1) {
		m := srcAttrPattern.FindStringSubmatch(tag)
		if m == nil {
			continue
		}
		if shouldIncludeImage(tag, m[1]) {
			resolved := resolveURL(m[1], baseURL)
			return &resolved
		}
	}

	return nil
}

// shouldIncludeImage は本文画像をアイキャッチとして採用するかを判定する。
// 幅と高さが両方宣言されていていずれかが200px未満の画像、
// アイコンやロゴなどの除外語を含む画像、トラッキング画像は採用しない。
func shouldIncludeImage(tag, imgURL string) bool {
	wm := widthAttrPattern.FindStringSubmatch(tag)
	hm := heightAttrPattern.FindStringSubmatch(tag)
	if wm != nil && hm != nil {
		w, werr := strconv.Atoi(wm[1])
		h, herr := strconv.Atoi(hm[1])
		if werr == nil && herr == nil && (w < minImageSize || h < minImageSize) {
			return false
		}
	}

	lowerURL := strings.ToLower(imgURL)
	lowerTag := strings.ToLower(tag)
	for _, word := range imageDenylist {
		if strings.Contains(lowerURL, word) || strings.Contains(lowerTag, word) {
			return false
		}
	}

	for _, marker := range trackingMarkers {
		if strings.Contains(imgURL, marker) {
			return false
		}
	}

	return true
}

// resolveURL は相対URLをbaseURL基準の絶対URLに解決する。
// 既に絶対URLの場合はそのまま返す。解決できない場合は元の文字列を返す。
func resolveURL(ref, baseURL string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return ref
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return base.ResolveReference(refURL).String()
}
