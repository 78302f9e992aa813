package device

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// MachineIDPaths are read in order by MachineID.
var MachineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// MachineID reads the OS installation id from the first readable file in
// Paths. Missing files mean no id is available.
type MachineID struct {
	Paths []string
}

// NewMachineID returns a MachineID reading MachineIDPaths.
func NewMachineID() *MachineID {
	return &MachineID{Paths: MachineIDPaths}
}

func (m *MachineID) InstallationID(ctx context.Context) (string, error) {
	for _, path := range m.Paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return "", nil
}
