// Package util holds KakaoTalk message helpers.
package util

import (
	"strings"
	"time"
)

const (
	// SeeMorePadding is how many zero-width spaces push a body behind
	// KakaoTalk's '전체보기' fold.
	SeeMorePadding = 500
	ZeroWidthSpace = "\u200b"
)

var kst = time.FixedZone("KST", 9*60*60)

// SeeMore folds body behind the '전체보기' button, leaving header visible.
// A repeated header on the body's first line is dropped.
func SeeMore(header, body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	header = strings.TrimSpace(header)
	body = strings.TrimLeft(strings.TrimPrefix(body, header), "\r\n")

	var b strings.Builder
	b.Grow(len(header) + SeeMorePadding*len(ZeroWidthSpace) + len(body) + 1)
	b.WriteString(header)
	b.WriteString(strings.Repeat(ZeroWidthSpace, SeeMorePadding))
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}

// FormatKST formats t in Korea Standard Time.
func FormatKST(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(kst).Format(layout)
}
