package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDeviceStateStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewDeviceStateStore(filepath.Join(t.TempDir(), "nonexistent.yaml"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store := NewDeviceStateStore(filepath.Join(t.TempDir(), "sub", "state.yaml"))
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		state := &DeviceState{
			LifecycleState:  20,
			StateName:       "SCRAP",
			TransitionCount: 2,
			History: []TransitionRecord{
				{From: 0, To: 1, Result: "SUCCESS", At: at},
				{From: 1, To: 20, Result: "SUCCESS", At: at.Add(time.Second)},
			},
		}
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if state.Version != StateVersion {
			t.Errorf("Version = %d, want %d", state.Version, StateVersion)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.LifecycleState != 20 || got.TransitionCount != 2 {
			t.Errorf("Load() = state %d count %d, want 20 and 2", got.LifecycleState, got.TransitionCount)
		}
		if len(got.History) != 2 || !got.History[1].At.Equal(at.Add(time.Second)) {
			t.Errorf("History = %+v", got.History)
		}
		if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
			t.Errorf("temporary file left behind: %v", err)
		}
	})

	t.Run("RejectsNewerVersion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.yaml")
		if err := os.WriteFile(path, []byte("version: 99\n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := NewDeviceStateStore(path).Load()
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Load() error = %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewDeviceStateStore(filepath.Join(t.TempDir(), "state.yaml"))
		if err := store.Clear(); err != nil {
			t.Errorf("Clear() on missing file error = %v", err)
		}
		if err := store.Save(&DeviceState{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if got, _ := store.Load(); got != nil {
			t.Errorf("Load() after Clear = %v, want nil", got)
		}
	})
}

func TestAppendBoundsHistory(t *testing.T) {
	var s DeviceState
	for i := range MaxHistory + 5 {
		s.Append(TransitionRecord{To: uint8(i % 32)})
	}
	if len(s.History) != MaxHistory {
		t.Fatalf("len(History) = %d, want %d", len(s.History), MaxHistory)
	}
	if s.History[0].To != uint8(5%32) {
		t.Errorf("oldest record To = %d, want 5", s.History[0].To)
	}
}
