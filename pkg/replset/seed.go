package replset

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SeedList is the parsed form of the command-line seed string
// "<setname>/<host1:port>,<host2:port>[,...]" (§6). Grounded on
// parseReplsetCmdLine in original_source/db/repl/rs.cpp.
type SeedList struct {
	SetName string
	Seeds   []HostPort
}

// ParseSeedList parses the seed string. Rules (unchanged from spec.md §6):
// exactly one '/', non-empty set name, comma-separated hosts, duplicate
// hosts are an error, a host equal to self is logged and skipped, and an
// empty seed list is legal (single-node sets, e.g. "rs0/").
func ParseSeedList(s string, self SelfChecker) (SeedList, error) {
	slash := strings.Index(s, "/")
	if slash <= 0 {
		return SeedList{}, fmt.Errorf("replset: bad seed string %q, format is <setname>/<host1:port>,<host2:port>[,...]", s)
	}
	setName := s[:slash]

	rest := s[slash+1:]
	out := SeedList{SetName: setName}
	if rest == "" {
		return out, nil
	}

	seen := make(map[HostPort]bool)
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hp, err := NewHostPort(part)
		if err != nil {
			return SeedList{}, fmt.Errorf("replset: bad seed hostname %q: %w", part, err)
		}
		if seen[hp] {
			return SeedList{}, fmt.Errorf("replset: bad seed string - duplicate host %q", hp)
		}
		seen[hp] = true

		if self != nil && self.IsSelf(hp) {
			log.WithField("host", hp).Info("replset: ignoring seed (=self)")
			continue
		}
		out.Seeds = append(out.Seeds, hp)
	}
	return out, nil
}

// String emits the canonical seed-string form; parse-then-emit round-trips
// modulo whitespace and the self-host filtering ParseSeedList already did.
func (l SeedList) String() string {
	hosts := make([]string, len(l.Seeds))
	for i, h := range l.Seeds {
		hosts[i] = string(h)
	}
	return l.SetName + "/" + strings.Join(hosts, ",")
}
