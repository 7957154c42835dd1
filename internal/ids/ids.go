// Package ids generates and namespaces the prefixed identifiers used
// across the service (completions, accounts, keys, secrets). Non-production
// environments carry an extra env prefix so ids from different deployments
// can never be confused.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// Kind prefixes for generated ids.
const (
	KindCompletion = "cmpl"
	KindAccount    = "acct"
	KindKey        = "key"
	KindSecret     = "sk"
	KindUser       = "usr"
)

// Qualify joins the env prefix, kind, and suffix with underscores,
// omitting an empty env prefix.
func Qualify(envPrefix, kind, suffix string) string {
	if envPrefix == "" {
		return kind + "_" + suffix
	}
	return envPrefix + "_" + kind + "_" + suffix
}

// New returns a fresh id of the given kind. The random part is a UUIDv7,
// so ids of the same kind sort by creation time.
func New(envPrefix, kind string) string {
	return Qualify(envPrefix, kind, hex(uuid.Must(uuid.NewV7())))
}

// NewSecret returns a fresh API key secret. Secrets are not time-sortable.
func NewSecret(envPrefix string) string {
	return Qualify(envPrefix, KindSecret, hex(uuid.New()))
}

func hex(u uuid.UUID) string {
	return strings.ReplaceAll(u.String(), "-", "")
}
