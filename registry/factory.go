package registry

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

// RegistryFor creates a device registry from a location URI.
//
// Supported schemes:
//   - firebase://<instance-host>/<root>?auth=<token> - Firebase RTDB over
//     HTTPS, e.g. firebase://example-rtdb.firebaseio.com/AOC
//   - badger:///var/lib/provisioning/registry - embedded local store
//
// The returned registry may implement io.Closer (the badger backend does);
// callers own its lifecycle.
func RegistryFor(locationURI string, log *slog.Logger) (interfaces.DeviceRegistry, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "firebase":
		if u.Host == "" {
			return nil, fmt.Errorf("%w: missing instance host in firebase URI", interfaces.ErrInvalidLocationURI)
		}
		root := strings.Trim(u.Path, "/")
		if root == "" {
			root = "AOC"
		}
		return NewFirebaseRegistry("https://"+u.Host, root, u.Query().Get("auth"), log), nil

	case "badger":
		path := u.Path
		if u.Host != "" {
			path = u.Host + "/" + strings.TrimPrefix(path, "/")
		}
		if path == "" {
			return nil, fmt.Errorf("%w: empty path in badger URI", interfaces.ErrInvalidLocationURI)
		}
		return NewBadgerRegistry(path, log)

	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}
