package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the access completed.
	StatusSuccess Status = 0

	// StatusError indicates the bridge could not perform the access.
	StatusError Status = 1

	// StatusInvalidRequest indicates a malformed request.
	StatusInvalidRequest Status = 2

	// StatusUnmapped indicates an address outside the served register space.
	StatusUnmapped Status = 3
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	case StatusInvalidRequest:
		return "INVALID_REQUEST"
	case StatusUnmapped:
		return "UNMAPPED"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether s is a defined status code.
func (s Status) IsValid() bool {
	return s <= StatusUnmapped
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
