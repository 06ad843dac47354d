package export

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Owner is the UID/GID exported files are handed to.
type Owner struct {
	UID int
	GID int
}

// ParseOwner parses a "UID:GID" string. It returns nil for "".
func ParseOwner(owner string) (*Owner, error) {
	if owner == "" {
		return nil, nil
	}

	uid, gid, ok := strings.Cut(owner, ":")
	if !ok || strings.Contains(gid, ":") {
		return nil, fmt.Errorf("invalid owner %q, expected UID:GID", owner)
	}

	u, err := strconv.Atoi(uid)
	if err != nil {
		return nil, fmt.Errorf("invalid UID %q: %w", uid, err)
	}

	g, err := strconv.Atoi(gid)
	if err != nil {
		return nil, fmt.Errorf("invalid GID %q: %w", gid, err)
	}

	return &Owner{UID: u, GID: g}, nil
}

// chown is best-effort: a failed chown leaves the file owned by the caller.
func (o *Owner) chown(path string) {
	if o == nil {
		return
	}

	_ = os.Chown(path, o.UID, o.GID)
}

func (o *Owner) mkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}

	o.chown(path)

	return nil
}

func (o *Owner) writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	o.chown(path)

	return nil
}
