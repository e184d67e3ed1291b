package expo

import (
	"regexp"

	"github.com/google/uuid"
)

var (
	expoTokenPattern     = regexp.MustCompile(`^Expo(?:nent)?PushToken\[[^\]]+\]$`)
	embeddedTokenPattern = regexp.MustCompile(`Expo(?:nent)?PushToken\[[^\]]+?\]`)
	uuidShapePattern     = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	embeddedUUIDPattern  = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
)

// IsPushTokenValid reports whether token is an Expo push token, either in the
// ExpoPushToken[...] / ExponentPushToken[...] form or as a bare device UUID.
func IsPushTokenValid(token string) bool {
	if expoTokenPattern.MatchString(token) {
		return true
	}
	// uuid.Parse also accepts the urn and braced forms, so pin the shape first.
	if !uuidShapePattern.MatchString(token) {
		return false
	}
	_, err := uuid.Parse(token)
	return err == nil
}

// ParseToken returns a token and may return an error if the input token is invalid
func ParseToken(token string) (Token, error) {
	if !IsPushTokenValid(token) {
		return "", &ValidationError{Field: "to", Value: token, Reason: "expected a valid Expo push token"}
	}
	return Token(token), nil
}

// MustParseToken is like ParseToken but panics on an invalid token.
// Intended for tests and hard-coded tokens.
func MustParseToken(token string) Token {
	tkn, err := ParseToken(token)
	if err != nil {
		panic(err)
	}
	return tkn
}

// FilterValidTokens splits raw tokens into the valid ones, in input order, and
// the rejected ones.
func FilterValidTokens(raw []string) ([]Token, []string) {
	var valid []Token
	var invalid []string
	for _, r := range raw {
		if IsPushTokenValid(r) {
			valid = append(valid, Token(r))
		} else {
			invalid = append(invalid, r)
		}
	}
	return valid, invalid
}

// tokenInMessage pulls the push token the service mentions in an error message.
func tokenInMessage(message string) (Token, bool) {
	if m := embeddedTokenPattern.FindString(message); m != "" {
		return Token(m), true
	}
	if m := embeddedUUIDPattern.FindString(message); m != "" {
		return Token(m), true
	}
	return "", false
}
