package fonts

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/xob0t/PixelTyper/pkg/apperr"
)

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

// height returns the face's line height in whole pixels.
func height(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

func assertScalable(t *testing.T, face font.Face, size int) {
	t.Helper()
	if face == nil {
		t.Fatal("nil face")
	}
	if IsFallback(face) {
		t.Fatal("got fallback face, want a loaded font")
	}
	if h := height(face); h < size/2 || h > size*2 {
		t.Errorf("line height %d implausible for size %d", h, size)
	}
}

func TestResolveDefaultAndEmpty(t *testing.T) {
	r := NewResolver(Options{Log: quietLogger(), System: map[string][]string{}})
	for _, name := range []string{"", "default"} {
		if face := r.Resolve(name, 40); !IsFallback(face) {
			t.Errorf("Resolve(%q) did not return the fallback font", name)
		}
	}
}

func TestResolveUnknownFallsBack(t *testing.T) {
	r := NewResolver(Options{
		UserDir:    t.TempDir(),
		BundledDir: t.TempDir(),
		System:     map[string][]string{},
		Log:        quietLogger(),
	})
	if face := r.Resolve("NoSuchFont", 20); !IsFallback(face) {
		t.Error("unknown font did not fall back")
	}
	if face := r.Resolve("[System] Nothing", 20); !IsFallback(face) {
		t.Error("unknown system font did not fall back")
	}
}

func TestResolveRegistry(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.ttf")
	writeFile(t, good, goregular.TTF)

	r := NewResolver(Options{
		Registry: map[string][]string{
			"Brand":  {filepath.Join(dir, "missing.ttf"), good},
			"Broken": {filepath.Join(dir, "missing.ttf")},
		},
		System: map[string][]string{},
		Log:    quietLogger(),
	})

	assertScalable(t, r.Resolve("Brand", 32), 32)
	if face := r.Resolve("Broken", 32); !IsFallback(face) {
		t.Error("registry entry with no loadable file did not fall back")
	}
}

func TestResolveDirectoryPriority(t *testing.T) {
	user := t.TempDir()
	bundled := t.TempDir()

	// A corrupt user font must not hide the bundled one.
	writeFile(t, filepath.Join(user, "Certificate.ttf"), []byte("not a font"))
	writeFile(t, filepath.Join(bundled, "Certificate.TTF"), goregular.TTF)
	writeFile(t, filepath.Join(user, "Upper.OTF"), goregular.TTF)

	r := NewResolver(Options{UserDir: user, BundledDir: bundled, System: map[string][]string{}, Log: quietLogger()})

	assertScalable(t, r.Resolve("Certificate", 24), 24)
	assertScalable(t, r.Resolve("Upper", 24), 24)
	if face := r.Resolve("Certif", 24); !IsFallback(face) {
		t.Error("partial name should not match")
	}
}

func TestResolveSizeScales(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "G.ttf"), goregular.TTF)
	r := NewResolver(Options{UserDir: dir, System: map[string][]string{}, Log: quietLogger()})

	small, large := height(r.Resolve("G", 12)), height(r.Resolve("G", 48))
	if large <= small*3 {
		t.Errorf("height at 48 (%d) should be about 4x height at 12 (%d)", large, small)
	}
}

func TestResolveSystemTable(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "sys.ttf")
	writeFile(t, present, goregular.TTF)

	r := NewResolver(Options{
		System: map[string][]string{"Sans": {filepath.Join(dir, "absent.ttf"), present}},
		Log:    quietLogger(),
	})
	assertScalable(t, r.Resolve(SystemPrefix+"Sans", 20), 20)
	if face := r.Resolve("Sans", 20); !IsFallback(face) {
		t.Error("system fonts require the prefix")
	}
}

func TestResolveLiteralPathAndBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "any-name.ttf")
	writeFile(t, path, goregular.TTF)

	r := NewResolver(Options{System: map[string][]string{}, Log: quietLogger()})
	assertScalable(t, r.Resolve(path, 30), 30)
	assertScalable(t, r.Resolve("Go Mono", 30), 30)
}

func TestResolveNonPositiveSize(t *testing.T) {
	r := NewResolver(Options{System: map[string][]string{}, Log: quietLogger()})
	if face := r.Resolve("Go Regular", 0); !IsFallback(face) {
		t.Error("size 0 should fall back")
	}
}

func TestResolveLogsMisses(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r := NewResolver(Options{System: map[string][]string{}, Log: log})
	r.Resolve("Phantom", 20)

	entry := hook.LastEntry()
	if entry == nil || entry.Data["font"] != "Phantom" {
		t.Fatalf("expected a debug entry for the miss, got %+v", entry)
	}
}

func TestAvailable(t *testing.T) {
	user := t.TempDir()
	bundled := t.TempDir()
	writeFile(t, filepath.Join(user, "Mine.ttf"), goregular.TTF)
	writeFile(t, filepath.Join(user, "notes.txt"), []byte("x"))
	writeFile(t, filepath.Join(bundled, "Ocraext.ttf"), goregular.TTF)
	writeFile(t, filepath.Join(bundled, "Shipped.otf"), goregular.TTF)
	sysFile := filepath.Join(t.TempDir(), "s.ttf")
	writeFile(t, sysFile, goregular.TTF)

	r := NewResolver(Options{
		Registry:   map[string][]string{"Ocraext": {"x.ttf"}},
		UserDir:    user,
		BundledDir: bundled,
		System:     map[string][]string{"Sans": {sysFile}, "Gone": {"/nonexistent.ttf"}},
		Log:        quietLogger(),
	})

	want := []string{"Ocraext", "Mine", "Shipped", "[System] Sans", "Go Regular", "Go Bold", "Go Mono"}
	if got := r.Available(); !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestInstall(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fonts")
	r := NewResolver(Options{UserDir: dir, System: map[string][]string{}, Log: quietLogger()})

	name, err := r.Install("uploads/Fancy.ttf", bytes.NewReader(goregular.TTF))
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if name != "Fancy" {
		t.Errorf("name = %q, want Fancy", name)
	}
	assertScalable(t, r.Resolve("Fancy", 20), 20)

	_, err = r.Install("readme.md", bytes.NewReader(nil))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Install(readme.md) error = %v, want ErrValidation", err)
	}
}
