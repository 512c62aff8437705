package peripheral

import (
	"testing"

	"github.com/xcoresim/xcoresim/core"
)

type stubPeripheral struct{ name string }

func (s *stubPeripheral) PeripheralName() string { return s.name }

func TestRegisterAndLookup(t *testing.T) {
	Register(&Descriptor{
		Kind: "registry-test-kind",
		Properties: []PropertyDescriptor{
			{Name: "filename", Kind: StringProperty, Required: true},
		},
		New: func(sys *core.System, props Properties) (Peripheral, error) {
			name, _ := props.String("filename")
			return &stubPeripheral{name: name}, nil
		},
	})

	d, ok := Lookup("registry-test-kind")
	if !ok {
		t.Fatalf("expected to find the registered kind")
	}
	if d.Kind != "registry-test-kind" {
		t.Fatalf("unexpected kind: %s", d.Kind)
	}
}

func TestNewRejectsMissingRequiredProperty(t *testing.T) {
	Register(&Descriptor{
		Kind: "registry-test-missing",
		Properties: []PropertyDescriptor{
			{Name: "filename", Kind: StringProperty, Required: true},
		},
		New: func(sys *core.System, props Properties) (Peripheral, error) {
			return &stubPeripheral{}, nil
		},
	})

	_, err := New("registry-test-missing", nil, Properties{})
	if err == nil {
		t.Fatalf("expected an error when a required property is missing")
	}
}

func TestNewBuildsPeripheralWhenPropertiesSatisfied(t *testing.T) {
	Register(&Descriptor{
		Kind: "registry-test-ok",
		Properties: []PropertyDescriptor{
			{Name: "filename", Kind: StringProperty, Required: true},
		},
		New: func(sys *core.System, props Properties) (Peripheral, error) {
			name, _ := props.String("filename")
			return &stubPeripheral{name: name}, nil
		},
	})

	p, err := New("registry-test-ok", nil, Properties{Strings: map[string]string{"filename": "image.bin"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PeripheralName() != "image.bin" {
		t.Fatalf("unexpected peripheral name: %s", p.PeripheralName())
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New("registry-test-does-not-exist", nil, Properties{}); err == nil {
		t.Fatalf("expected an error for an unregistered kind")
	}
}
