package database

import "regexp"

var validIdentifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier accepts names safe to splice into SQL unquoted.
func ValidateIdentifier(name string) error {
	if !validIdentifierPattern.MatchString(name) {
		return ErrInvalidIdentifier.WithDetail("identifier", name)
	}
	return nil
}
