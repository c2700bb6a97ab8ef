// Package keys derives cache keys for every cached concern. The generation
// key format is pinned: changing it silently invalidates all cached results.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Generation returns the key for a generation result:
// sha256 over "lang|mode|locationLabel|prompt".
func Generation(lang, mode, locationLabel, prompt string) string {
	sum := sha256.Sum256([]byte(lang + "|" + mode + "|" + locationLabel + "|" + prompt))
	return "gen:" + hex.EncodeToString(sum[:])
}

// GeoIP keys the network geolocation lookup by client IP; an unknown IP maps
// to the fixed "self" slot.
func GeoIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "geo:ip:self"
	}
	return fmt.Sprintf("geo:ip:%s:%016x", sanitize(ip), xxhash.Sum64String(ip))
}

// Weather coalesces nearby requests: coordinates round to 2 decimal degrees
// (~1km) and every non-Chinese locale shares one description bucket.
func Weather(lat, lon float64, lang string) string {
	return fmt.Sprintf("weather:%.2f:%.2f:%s", lat, lon, LangBucket(lang))
}

// LangBucket collapses languages into the 2-value description bucket.
func LangBucket(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "zh") {
		return "zh"
	}
	return "other"
}

func Share(id string) string { return "share:" + sanitize(id) }

func Views(id string) string { return "views:" + sanitize(id) }

// sanitize keeps keys ASCII and delimiter-safe.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '=' || r == '.':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
