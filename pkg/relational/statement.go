package relational

import (
	"errors"
	"strings"
)

// ErrMultipleStatements indicates the submitted text contains more than one
// SQL statement. The executor runs exactly one statement per request.
var ErrMultipleStatements = errors.New("multiple SQL statements not allowed; submit one statement per request")

// normalizeStatement strips a trailing semicolon and rejects text containing
// additional statements. The statement itself is otherwise passed through
// verbatim: this console trusts its operator-facing callers.
func normalizeStatement(sqlText string) (string, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return "", nil
	}

	normalized := stripTrailingSemicolon(sqlText)
	if semicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}
	return normalized, nil
}

// semicolonOutsideStrings reports whether the SQL contains a semicolon
// outside of string literals. After the trailing semicolon has been
// stripped, any remaining one means a second statement.
func semicolonOutsideStrings(sqlText string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	var prev rune

	for _, ch := range sqlText {
		switch state {
		case stateNormal:
			switch ch {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// A doubled quote ('') exits and immediately re-enters on the
			// next character, which keeps the scan correct.
			if ch == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if ch == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = ch
	}
	return false
}

func stripTrailingSemicolon(sqlText string) string {
	sqlText = strings.TrimRight(sqlText, " \t\n\r")
	if strings.HasSuffix(sqlText, ";") {
		sqlText = strings.TrimRight(strings.TrimSuffix(sqlText, ";"), " \t\n\r")
	}
	return sqlText
}
