package instance

import "os"

// GetID returns a stable identifier for this process, preferring an explicit
// override, then the Fly machine id, then a local default.
func GetID() string {
	if id := os.Getenv("FEASTLINE_INSTANCE_ID"); id != "" {
		return id
	}
	if id := os.Getenv("FLY_MACHINE_ID"); id != "" {
		return id
	}
	return "local"
}
