package notion

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidDatabaseID is returned when the input is neither a database ID
// nor a Notion URL ending in one
var ErrInvalidDatabaseID = goerr.New("invalid Notion database ID")

var hex32 = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ParseDatabaseID accepts a raw 32 hex ID, a dashed UUID or a notion.so URL
// and returns the ID in the dashed 8-4-4-4-12 form the API expects.
func ParseDatabaseID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", goerr.Wrap(ErrInvalidDatabaseID, "empty database ID")
	}

	var id string
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		id = idFromURL(input)
	} else {
		id = strings.ToLower(strings.ReplaceAll(input, "-", ""))
	}

	if !hex32.MatchString(id) {
		return "", goerr.Wrap(ErrInvalidDatabaseID, "cannot find database ID", goerr.V("input", input))
	}

	return id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:32], nil
}

// idFromURL returns the trailing 32 hex characters of the last path segment.
// Titles are prefixed to the ID with hyphens, e.g. /ws/Handbook-<id>.
func idFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if host := u.Hostname(); host != "www.notion.so" && host != "notion.so" {
		return ""
	}

	path := strings.TrimRight(u.Path, "/")
	last := path[strings.LastIndex(path, "/")+1:]
	clean := strings.ToLower(strings.ReplaceAll(last, "-", ""))
	if len(clean) < 32 {
		return ""
	}
	return clean[len(clean)-32:]
}
