package addresscheck

import (
	"context"
	"strings"
)

// Validator is the narrow contract the order pipeline consumes. The
// actual service-radius or geocoding rules stay behind it.
type Validator interface {
	Check(ctx context.Context, address, zip string) (ok bool, reason string, err error)
}

// ZipPrefixValidator approves addresses whose postal code starts with one
// of the configured prefixes, the delivery radius expressed as postal
// zones. An empty prefix list accepts everything.
type ZipPrefixValidator struct {
	Prefixes []string
}

func (v *ZipPrefixValidator) Check(_ context.Context, _ string, zip string) (bool, string, error) {
	if len(v.Prefixes) == 0 {
		return true, "", nil
	}

	zip = strings.TrimSpace(zip)
	for _, p := range v.Prefixes {
		if p != "" && strings.HasPrefix(zip, p) {
			return true, "", nil
		}
	}
	return false, "address outside the delivery area", nil
}
