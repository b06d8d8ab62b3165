package capture

import "strings"

// Property keys PulseAudio clients commonly set on their streams.
const (
	propAppID     = "application.id"
	propAppBinary = "application.process.binary"
	propAppName   = "application.name"
	propAppIcon   = "application.icon_name"
)

// MatchesApp reports whether a stream's properties identify target.
//
// target may be a bare name ("chrome"), a binary name or a reverse-DNS
// bundle id ("com.google.Chrome"); for bundle ids the last segment is also
// tried. Matching is case-insensitive. Ids and binaries must match exactly;
// the display name only has to contain the short name.
func MatchesApp(props map[string]string, target string) bool {
	full := strings.ToLower(strings.TrimSpace(target))
	if full == "" {
		return false
	}
	short := full
	if i := strings.LastIndex(full, "."); i >= 0 && i < len(full)-1 {
		short = full[i+1:]
	}

	for _, key := range []string{propAppID, propAppBinary, propAppIcon} {
		v := strings.ToLower(props[key])
		if v != "" && (v == full || v == short) {
			return true
		}
	}
	name := strings.ToLower(props[propAppName])
	return name != "" && (name == full || strings.Contains(name, short))
}
