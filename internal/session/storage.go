package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/madokanomi/publimatch-cli/internal/types"
)

const principalFileName = "principal.json"

// durablePath is where the principal lives when the user asked to be
// remembered across sessions.
func durablePath(dir string) string {
	return filepath.Join(dir, principalFileName)
}

// sessionPath is the session-scoped location. It lives under the system
// temp dir, so it does not survive a reboot.
func sessionPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("publimatch-session-%d.json", os.Getuid()))
}

func readPrincipal(path string) (*types.Principal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var p types.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.ID == "" || p.Token == "" {
		return nil, nil
	}
	return &p, nil
}

func writePrincipal(path string, p types.Principal) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func removeIfPresent(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
