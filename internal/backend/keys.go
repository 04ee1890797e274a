package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eden-redis/loadengine/internal/ids"
)

// Cache key grammar: colon-separated segments under a fixed namespace,
// one constructor per key shape.

func KeyOverview(org ids.OrgID, hours int) string {
	return fmt.Sprintf("analytics:%s:overview:%dh", org, hours)
}

func KeyHourly(org ids.OrgID, bucket string) string {
	return fmt.Sprintf("analytics:%s:hourly:%s", org, bucket)
}

func KeyDaily(org ids.OrgID, day string) string {
	return fmt.Sprintf("analytics:%s:daily:%s", org, day)
}

func KeyTopPages(org ids.OrgID, hours int) string {
	return fmt.Sprintf("analytics:%s:top_pages:%dh", org, hours)
}

func KeyEventDistribution(org ids.OrgID, period string) string {
	return fmt.Sprintf("analytics:%s:events:dist:%s", org, period)
}

// SanitizeURL maps the characters the grammar reserves as separators
// (/ : ? &) to underscores so a page URL can be embedded in a key segment.
func SanitizeURL(url string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "?", "_", "&", "_")
	return r.Replace(url)
}

func KeyPage(org ids.OrgID, pageURL string) string {
	return fmt.Sprintf("analytics:%s:page:%s", org, SanitizeURL(pageURL))
}

func KeyUserActivity(user ids.UserID) string {
	return fmt.Sprintf("analytics:user:%s:activity", user)
}

func KeyRealtime(org ids.OrgID) string {
	return fmt.Sprintf("analytics:%s:realtime", org)
}

func KeyRealtimeBucketCount(org ids.OrgID, bucket string) string {
	return fmt.Sprintf("analytics:%s:realtime:%s:count", org, bucket)
}

func KeyRolling(org ids.OrgID, metric string, minutes int) string {
	return fmt.Sprintf("analytics:%s:rolling:%s:%dm", org, metric, minutes)
}

// splitLast splits a key at its last ':' into (prefix, suffix). Used by the
// hash and bitmap backends to recover a companion-hash key / bit offset from
// a logical analytics key.
func splitLast(key string) (prefix, suffix string, ok bool) {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

// hashFieldDefault is the field name used when a hash-backend key carries no
// ':' separator at all.
const hashFieldDefault = "default"

func hashKeyAndField(key string) (hashKey, field string) {
	prefix, suffix, ok := splitLast(key)
	if !ok {
		return key, hashFieldDefault
	}
	return prefix, suffix
}

func bitmapKeyAndOffset(key string) (bitmapKey string, offset uint32, ok bool) {
	prefix, suffix, split := splitLast(key)
	if !split {
		return "", 0, false
	}
	n, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil {
		return "", 0, false
	}
	return prefix, uint32(n), true
}
