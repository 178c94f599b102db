package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ErrUnsupportedVersion indicates a state file written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported state file version")

// DeviceState is the persisted state of a simulated device.
type DeviceState struct {
	// Version is the state file format version.
	Version int `yaml:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `yaml:"saved_at"`

	// LifecycleState is the 5-bit lifecycle state.
	LifecycleState uint8 `yaml:"lifecycle_state"`

	// StateName is the lifecycle state name, for readers of the file.
	StateName string `yaml:"state_name,omitempty"`

	// TransitionCount is the number of attempted transitions.
	TransitionCount int `yaml:"transition_count"`

	// History lists completed transitions, oldest first.
	History []TransitionRecord `yaml:"history,omitempty"`
}

// TransitionRecord is one completed transition.
type TransitionRecord struct {
	From   uint8     `yaml:"from"`
	To     uint8     `yaml:"to"`
	Result string    `yaml:"result"`
	At     time.Time `yaml:"at"`
}

// MaxHistory bounds DeviceState.History; older records are dropped.
const MaxHistory = 64

// Append adds rec to the history, dropping the oldest beyond MaxHistory.
func (s *DeviceState) Append(rec TransitionRecord) {
	s.History = append(s.History, rec)
	if n := len(s.History) - MaxHistory; n > 0 {
		s.History = s.History[n:]
	}
}

// DeviceStateStore manages persistence of device state to a YAML file.
type DeviceStateStore struct {
	mu   sync.Mutex
	path string
}

// NewDeviceStateStore creates a new device state store.
func NewDeviceStateStore(path string) *DeviceStateStore {
	return &DeviceStateStore{path: path}
}

// Path returns the state file path.
func (s *DeviceStateStore) Path() string {
	return s.path
}

// Save persists the device state to disk. The file is replaced atomically.
func (s *DeviceStateStore) Save(state *DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := yaml.Marshal(state)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the device state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *DeviceStateStore) Load() (*DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &DeviceState{}
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, state.Version)
	}

	return state, nil
}

// Clear removes the state file.
func (s *DeviceStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
