// Package tenant derives tenant identity from storage key conventions.
// A query or chunk scoped to one tenant must never touch another tenant's
// partition, so the sentinel for unparsable keys is itself an isolated
// partition rather than a merge into any real tenant.
package tenant

import "strings"

// Unknown is the isolated partition for documents whose storage key does not
// follow the uploads/<tenant>/<file> convention.
const Unknown = "unknown"

// ID is a validated tenant identifier.
type ID struct {
	value    string
	resolved bool
}

// String returns the tenant identifier value.
func (id ID) String() string { return id.value }

// Resolved reports whether the id was parsed from a valid key, as opposed to
// falling back to the Unknown partition.
func (id ID) Resolved() bool { return id.resolved }

// FromStorageKey parses the owning tenant from an object storage key.
// Expected convention: uploads/<tenant>/<filename>. Anything else resolves to
// the Unknown partition.
func FromStorageKey(key string) ID {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != "uploads" {
		return ID{value: Unknown}
	}
	t := strings.TrimSpace(parts[1])
	if t == "" || t == Unknown {
		return ID{value: Unknown}
	}
	return ID{value: t, resolved: true}
}

// FromString wraps an already-known tenant identifier, e.g. one taken from a
// request path. Empty input resolves to the Unknown partition.
func FromString(s string) ID {
	t := strings.TrimSpace(s)
	if t == "" || t == Unknown {
		return ID{value: Unknown}
	}
	return ID{value: t, resolved: true}
}

// StorageKey builds the upload key for a tenant's document file.
func StorageKey(tenantID, filename string) string {
	return "uploads/" + tenantID + "/" + filename
}
