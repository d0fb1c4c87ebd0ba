package sqlguard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

var safeIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// restrictedKeywords are rejected when they appear as whole words.
var restrictedKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE",
	"CREATE", "GRANT", "REVOKE", "COPY", "CALL", "DO", "EXEC", "EXECUTE",
}

var restrictedPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(restrictedKeywords, "|") + `)\b`)

// ErrInvalidIdentifier is matched by every *InvalidIdentifierError.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrUnsafeStatement is returned by CheckQuery for rejected statements.
var ErrUnsafeStatement = errors.New("query contains restricted keywords (e.g. INSERT, UPDATE, DROP) or multiple statements")

// InvalidIdentifierError reports a name that cannot be spliced into SQL.
type InvalidIdentifierError struct {
	Kind string // "schema", "table", "sort field", ...
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, e.Name)
}

// Is reports whether target is ErrInvalidIdentifier.
func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// ValidateIdentifier returns name unchanged if it is a plain SQL identifier.
// kind names the role of the identifier in the error message.
func ValidateIdentifier(name, kind string) (string, error) {
	if !safeIdent.MatchString(name) {
		return "", &InvalidIdentifierError{Kind: kind, Name: name}
	}
	return name, nil
}

// ValidateQualifiedName validates a name of the form "table" or
// "schema.table", checking each part.
func ValidateQualifiedName(name, kind string) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", &InvalidIdentifierError{Kind: kind, Name: name}
	}
	for _, p := range parts {
		if _, err := ValidateIdentifier(p, kind); err != nil {
			return "", &InvalidIdentifierError{Kind: kind, Name: name}
		}
	}
	return name, nil
}

// QuoteIdentifier renders parts as a double-quoted, dot-separated reference,
// e.g. "public"."orders".
func QuoteIdentifier(parts ...string) string {
	return pgx.Identifier(parts).Sanitize()
}

// IsQuerySafe reports whether stmt passes the keyword deny-list and contains
// no semicolon before its final character. One trailing semicolon is allowed.
func IsQuerySafe(stmt string) bool {
	clean := strings.TrimSpace(stmt)

	if restrictedPattern.MatchString(clean) {
		return false
	}

	if len(clean) > 0 && strings.Contains(clean[:len(clean)-1], ";") {
		return false
	}

	return true
}

// CheckQuery returns ErrUnsafeStatement when IsQuerySafe rejects stmt.
func CheckQuery(stmt string) error {
	if !IsQuerySafe(stmt) {
		return ErrUnsafeStatement
	}
	return nil
}
