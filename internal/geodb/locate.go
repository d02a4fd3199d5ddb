package geodb

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocatePayload finds file inside the first subdirectory of dir whose name
// matches pattern (filepath.Match syntax). Provider archives unpack to a
// single dated directory such as GeoLite2-ASN_20240102/.
func LocatePayload(dir, pattern, file string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fsErr("read", dir, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return "", fmt.Errorf("%w: bad pattern %q: %w", ErrUnexpectedLayout, pattern, err)
		}
		if !ok {
			continue
		}

		p := filepath.Join(dir, e.Name(), file)
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return "", fmt.Errorf("%w: %s not found in %s", ErrUnexpectedLayout, file, e.Name())
		}
		return p, nil
	}

	return "", fmt.Errorf("%w: no entry matching %q in %s", ErrUnexpectedLayout, pattern, dir)
}
