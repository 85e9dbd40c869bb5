package store

import (
	"fmt"
	"strings"
)

const (
	filePrefix    = "capture_"
	scoreMarker   = "_score"
	fileExtension = ".jpg"

	// UnknownField is the placeholder for any metadata field that is absent
	// on encode or unrecoverable on decode.
	UnknownField = "unknown"
)

// SanitizeIP rewrites every character outside [A-Za-z0-9.] to an underscore.
// An empty input becomes the "unknown" placeholder. The mapping is lossy:
// distinct raw values can collapse to the same sanitized form.
func SanitizeIP(ip string) string {
	if ip == "" {
		return UnknownField
	}
	var b strings.Builder
	b.Grow(len(ip))
	for _, r := range ip {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// EncodeFilename derives the on-disk name for a capture:
//
//	capture_<sanitizedIp>_score<rawScore>_<epochMillis>.jpg
//
// The score is embedded verbatim. The millisecond component makes names
// unique across writes; two writes within the same millisecond collide and
// the later one overwrites the earlier.
func EncodeFilename(ip, score string, nowMillis int64) string {
	return fmt.Sprintf("%s%s%s%s_%d%s", filePrefix, SanitizeIP(ip), scoreMarker, score, nowMillis, fileExtension)
}

// DecodeFilename recovers the sanitized IP and raw score from a capture
// filename. It is best-effort and never fails: any field that cannot be
// recovered comes back as the "unknown" placeholder. It anchors on the fixed
// grammar markers rather than underscore positions, since sanitized IPs may
// themselves contain underscores.
func DecodeFilename(name string) (ip, score string) {
	ip, score = UnknownField, UnknownField

	base, ok := strings.CutSuffix(name, fileExtension)
	if !ok {
		return ip, score
	}
	rest, ok := strings.CutPrefix(base, filePrefix)
	if !ok {
		return ip, score
	}

	// Strip the trailing millisecond component.
	sep := strings.LastIndex(rest, "_")
	if sep < 0 || !allDigits(rest[sep+1:]) {
		return ip, score
	}
	rest = rest[:sep]

	mark := strings.LastIndex(rest, scoreMarker)
	if mark < 0 {
		return ip, score
	}
	if v := rest[:mark]; v != "" {
		ip = v
	}
	if v := rest[mark+len(scoreMarker):]; v != "" {
		score = v
	}
	return ip, score
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
