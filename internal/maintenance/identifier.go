package maintenance

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// maxIdentifierParts allows database.schema.name.
const maxIdentifierParts = 3

// ParseIdentifier splits a dotted name such as "app.deals_enriched" into a
// pgx.Identifier. Each part is quoted when the identifier is sanitized, so
// names from configuration never reach the server as raw SQL.
func ParseIdentifier(name string) (pgx.Identifier, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) > maxIdentifierParts {
		return nil, fmt.Errorf("%w: %q has too many parts", ErrInvalidIdentifier, name)
	}

	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}

	return pgx.Identifier(parts), nil
}

func quote(name string) (string, error) {
	id, err := ParseIdentifier(name)
	if err != nil {
		return "", err
	}

	return id.Sanitize(), nil
}
