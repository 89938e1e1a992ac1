package feeds

import (
	"fmt"
	"strings"
)

// Global identifiers cross the federation boundary as
// "<feedCode>:<rawId>". The raw id may itself contain colons.
func ParseGlobalID(globalID string) (feedCode string, rawID string, err error) {
	feedCode, rawID, found := strings.Cut(globalID, ":")
	if !found || feedCode == "" || rawID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidGlobalID, globalID)
	}

	return feedCode, rawID, nil
}

func FormatGlobalID(feedCode string, rawID string) string {
	return fmt.Sprintf("%s:%s", feedCode, rawID)
}
