// Local user identity resolution.
package presence

import (
	"os"
	"os/user"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// EnvUser overrides the resolved identity when set.
const EnvUser = "SLATE_USER"

// ResolveUser returns the best-effort identity of the local user. Fallback
// order: configured override, SLATE_USER, the platform user variables, the
// OS account name, the hostname, then "anonymous". Never fails.
func ResolveUser(cfg types.PresenceConfig) string {
	if cfg.User != "" {
		return cfg.User
	}
	if v := os.Getenv(EnvUser); v != "" {
		return v
	}
	for _, env := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "anonymous"
}
