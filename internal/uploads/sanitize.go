package uploads

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// allowedExtensions is the document allow-list, lower case without the dot.
var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"pdf":  true,
}

// AllowedFile reports whether name has an allowed extension. The extension
// is whatever follows the last dot, compared case-insensitively.
func AllowedFile(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(name[i+1:])]
}

// SecureFilename reduces name to a single safe path component: compatibility
// decomposition to ASCII, path separators and whitespace runs become "_",
// anything outside [A-Za-z0-9_.-] is dropped, leading and trailing dots and
// underscores are trimmed. The result may be empty.
func SecureFilename(name string) string {
	var ascii strings.Builder
	for _, r := range norm.NFKD.String(name) {
		switch {
		case r == '/' || r == '\\':
			ascii.WriteByte(' ')
		case r < unicode.MaxASCII:
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var out strings.Builder
	for _, r := range joined {
		if r == '_' || r == '.' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
		}
	}
	return strings.Trim(out.String(), "._")
}

// SubjectDir names the per-person upload directory: the secured subject key,
// or fallback when that comes out empty.
func SubjectDir(subject, fallback string) string {
	if dir := SecureFilename(subject); dir != "" {
		return dir
	}
	return SecureFilename(fallback)
}
