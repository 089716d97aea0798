package messagehandler

import (
	"path"
	"path/filepath"
	"strings"
)

// IsSamePath reports whether a and b name the same file. The comparison is
// case-insensitive and done on cleaned absolute paths; both separators and
// drive letters are understood whatever the host OS.
func IsSamePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(normalizePath(a), normalizePath(b))
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if !isAbsolute(p) {
		if abs, err := filepath.Abs(filepath.FromSlash(p)); err == nil {
			p = filepath.ToSlash(abs)
		}
	}
	if hasDriveLetter(p) {
		// Clean below the volume so ".." stops at the drive root.
		return strings.ToUpper(p[:2]) + path.Clean("/"+p[2:])
	}
	return path.Clean(p)
}

func isAbsolute(p string) bool {
	return strings.HasPrefix(p, "/") || hasDriveLetter(p)
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
