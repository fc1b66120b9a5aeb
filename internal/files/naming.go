package files

import (
	"fmt"
	"math/rand/v2"
	"path"
	"strings"
	"time"
)

const defaultBaseName = "file"

// StorageName derives an object store key from a client file name:
// the base name, a millisecond timestamp, a random number, and the original
// extension, e.g. "report-1718000000000-482913377.csv". Two calls with the
// same input differ with overwhelming probability. Directory components are
// dropped so the key never escapes the bucket root.
func StorageName(original string, now time.Time) string {
	base, ext := splitName(original)
	return fmt.Sprintf("%s-%d-%d%s", base, now.UnixMilli(), rand.IntN(1_000_000_000), ext)
}

// FileType returns the lowercase extension of name without its dot,
// or "" when name has none.
func FileType(name string) string {
	_, ext := splitName(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func splitName(name string) (base, ext string) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return defaultBaseName, ""
	}

	ext = path.Ext(name)
	base = strings.TrimSuffix(name, ext)

	// dotfiles such as ".env" have no extension
	if base == "" {
		return name, ""
	}
	return base, ext
}
