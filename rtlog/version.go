package rtlog

// Version information for the irgraph runtime.
const (
	// Version is the current version of the runtime.
	Version = "1.0.0"

	// LineFormat is the format of one dynamic log line.
	LineFormat = "%d '%s' counter: %d\n"
)

// Info provides information about the runtime.
type Info struct {
	// Version is the runtime version string.
	Version string

	// LineFormat is the printf format of each log line.
	LineFormat string

	// Synchronized indicates whether log writes are serialised.
	Synchronized bool
}

// GetInfo returns information about the runtime.
//
// Example:
//
//	info := rtlog.GetInfo()
//	fmt.Printf("irgraph runtime %s\n", info.Version)
func GetInfo() Info {
	return Info{
		Version:      Version,
		LineFormat:   LineFormat,
		Synchronized: true,
	}
}
