package scankit

import "strings"

// Scene prefixes accepted by the naming grammar. A name declares its
// scene either with the full word or with the single letter immediately
// followed by a digit or separator, so "Indoor_001.zip", "I001.zip" and
// "i_data.zip" all classify as indoor.
const (
	prefixIndoorWord  = "indoor"
	prefixOutdoorWord = "outdoor"
)

// ClassifyName classifies an archive file name into a scene category.
//
// The grammar is case-insensitive: a name classifies as indoor when it
// starts with the literal word "indoor", or with "i" immediately followed
// by a digit, underscore, hyphen, period or space. The outdoor rule is
// symmetric on "outdoor"/"o". Anything else, including the empty name,
// classifies as unknown with Matched=false, which is a warning rather
// than an error.
func ClassifyName(name string) NameVerdict {
	lower := strings.ToLower(name)

	if prefix, ok := matchScenePrefix(lower, prefixIndoorWord, 'i'); ok {
		return NameVerdict{
			SceneType:   SceneIndoor,
			Prefix:      prefix,
			Matched:     true,
			Explanation: "file name declares an indoor scene",
		}
	}
	if prefix, ok := matchScenePrefix(lower, prefixOutdoorWord, 'o'); ok {
		return NameVerdict{
			SceneType:   SceneOutdoor,
			Prefix:      prefix,
			Matched:     true,
			Explanation: "file name declares an outdoor scene",
		}
	}

	return NameVerdict{
		SceneType:   SceneUnknown,
		Matched:     false,
		Explanation: "file name matches no scene naming convention; outdoor thresholds apply",
	}
}

// matchScenePrefix applies the word-or-letter rule for one scene
func matchScenePrefix(lower, word string, letter byte) (string, bool) {
	if strings.HasPrefix(lower, word) {
		return word, true
	}
	if len(lower) >= 2 && lower[0] == letter && isPrefixSeparator(lower[1]) {
		return string(letter), true
	}
	return "", false
}

// isPrefixSeparator reports whether c may follow the single-letter scene
// prefix: a digit or one of a small separator set.
func isPrefixSeparator(c byte) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '_', '-', '.', ' ':
		return true
	}
	return false
}
