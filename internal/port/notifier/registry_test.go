package notifier

import (
	"context"
	"errors"
	"testing"
)

type stubNotifier struct{ name string }

func (s stubNotifier) Name() string                            { return s.name }
func (s stubNotifier) Capabilities() Capabilities              { return Capabilities{} }
func (s stubNotifier) Send(context.Context, Notification) error { return nil }

func TestConfigured(t *testing.T) {
	Register("test-on", func(map[string]string) (Notifier, error) { return stubNotifier{"test-on"}, nil })
	Register("test-off", func(map[string]string) (Notifier, error) { return nil, ErrNotConfigured })
	Register("test-broken", func(map[string]string) (Notifier, error) { return nil, errors.New("bad url") })

	got, failed := Configured(nil)

	var names []string
	for _, n := range got {
		names = append(names, n.Name())
	}
	if len(names) != 1 || names[0] != "test-on" {
		t.Fatalf("configured = %v, want [test-on]", names)
	}
	if _, ok := failed["test-broken"]; !ok || len(failed) != 1 {
		t.Fatalf("failed = %v, want only test-broken", failed)
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("does-not-exist", nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("test-dup", func(map[string]string) (Notifier, error) { return nil, ErrNotConfigured })
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("test-dup", func(map[string]string) (Notifier, error) { return nil, ErrNotConfigured })
}
