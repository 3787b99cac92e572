package chunks

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var reIndex = regexp.MustCompile(`_part(\d+)$`)

// BaseName is the extension-less file name of a chunk, e.g. "standup_part007".
func BaseName(meeting string, index int) string {
	return fmt.Sprintf("%s_part%03d", meeting, index)
}

// IndexFromName recovers the 1-based chunk index from a chunk audio or
// transcript file name.
func IndexFromName(name string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	m := reIndex.FindStringSubmatch(base)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
