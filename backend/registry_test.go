package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/pixel/input"
	"github.com/gogpu/pixel/scene"
)

type fakeAdapter struct {
	name    string
	inited  bool
	initErr error
}

func (f *fakeAdapter) Name() string  { return f.name }
func (f *fakeAdapter) Init() error   { f.inited = true; return f.initErr }
func (f *fakeAdapter) Close()        {}
func (f *fakeAdapter) Size() (int, int) { return 640, 480 }
func (f *fakeAdapter) BeginFrame() error { return nil }
func (f *fakeAdapter) Submit([]scene.RenderInstance) error { return nil }
func (f *fakeAdapter) EndFrame() error { return nil }
func (f *fakeAdapter) MapPointer(px, py float64) (input.Point, input.Point) {
	return input.Point{}, input.Point{}
}

func cleanup(t *testing.T, names ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, n := range names {
			Unregister(n)
		}
	})
}

func TestRegisterAndGet(t *testing.T) {
	cleanup(t, "fake")
	Register("fake", func() Adapter { return &fakeAdapter{name: "fake"} })

	if !IsRegistered("fake") {
		t.Error("fake not registered")
	}
	a := Get("fake")
	if a == nil || a.Name() != "fake" {
		t.Errorf("Get returned %v", a)
	}
	if Get("missing") != nil {
		t.Error("Get of unregistered name should be nil")
	}
}

func TestUnregister(t *testing.T) {
	Register("gone", func() Adapter { return &fakeAdapter{name: "gone"} })
	Unregister("gone")
	if IsRegistered("gone") {
		t.Error("gone still registered")
	}
}

func TestDefaultPriority(t *testing.T) {
	cleanup(t, BackendTerm, BackendWGPU)
	Register(BackendTerm, func() Adapter { return &fakeAdapter{name: BackendTerm} })
	Register(BackendWGPU, func() Adapter { return &fakeAdapter{name: BackendWGPU} })

	if got := Default().Name(); got != BackendWGPU {
		t.Errorf("Default = %q, want %q", got, BackendWGPU)
	}
}

func TestDefaultSkipsUnavailable(t *testing.T) {
	cleanup(t, BackendTerm, BackendWGPU)
	Register(BackendWGPU, func() Adapter { return nil })
	Register(BackendTerm, func() Adapter { return &fakeAdapter{name: BackendTerm} })

	if got := Default().Name(); got != BackendTerm {
		t.Errorf("Default = %q, want fallback %q", got, BackendTerm)
	}
}

func TestInitDefault(t *testing.T) {
	if _, err := InitDefault(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("empty registry: err = %v", err)
	}

	cleanup(t, BackendTerm)
	fa := &fakeAdapter{name: BackendTerm}
	Register(BackendTerm, func() Adapter { return fa })

	a, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault: %v", err)
	}
	if a != Adapter(fa) || !fa.inited {
		t.Error("InitDefault did not init the registered adapter")
	}
}

func TestInitDefaultPropagatesError(t *testing.T) {
	cleanup(t, BackendTerm)
	wantErr := errors.New("no tty")
	Register(BackendTerm, func() Adapter {
		return &fakeAdapter{name: BackendTerm, initErr: wantErr}
	})

	if _, err := InitDefault(); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestAvailable(t *testing.T) {
	cleanup(t, "a", "b")
	Register("a", func() Adapter { return &fakeAdapter{name: "a"} })
	Register("b", func() Adapter { return &fakeAdapter{name: "b"} })

	names := Available()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["a"] || !found["b"] {
		t.Errorf("Available = %v", names)
	}
}
