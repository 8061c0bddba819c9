package validator

import (
	"regexp"
	"unicode/utf8"
)

var clubID = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func ClubName(name string, _ map[string]interface{}) bool {
	return utf8.RuneCountInString(name) >= 3 && utf8.RuneCountInString(name) <= 100 && clubID.MatchString(name)
}

func BlockReason(reason string, _ map[string]interface{}) bool {
	return utf8.RuneCountInString(reason) <= 255
}
