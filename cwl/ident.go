package cwl

import "strings"

// RefPrefix starts every port identifier in the document.
const RefPrefix = "#"

// NormalizeID returns raw in reference form, adding RefPrefix only when missing.
func NormalizeID(raw string) string {
	if strings.HasPrefix(raw, RefPrefix) {
		return raw
	}
	return RefPrefix + raw
}
