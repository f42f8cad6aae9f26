package fonts

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// SystemPrefix marks a name as a system font ("[System] Arial").
const SystemPrefix = "[System] "

// registryStrategy loads fonts registered in the configuration.
type registryStrategy struct {
	files  map[string][]string
	loader *loader
	log    logrus.FieldLogger
}

func (s *registryStrategy) TryResolve(name string, size int) (font.Face, bool) {
	for _, path := range s.files[name] {
		face, err := s.loader.face(path, size)
		if err != nil {
			s.log.WithFields(logrus.Fields{"font": name, "source": "registry"}).Debugf("skip: %v", err)
			continue
		}
		return face, true
	}
	return nil, false
}

// dirStrategy probes <dir>/<name><ext> for each known extension.
type dirStrategy struct {
	dir    string
	source string
	loader *loader
	log    logrus.FieldLogger
}

func (s *dirStrategy) TryResolve(name string, size int) (font.Face, bool) {
	if s.dir == "" || strings.ContainsAny(name, `/\`) {
		return nil, false
	}
	for _, path := range s.candidates(name) {
		face, err := s.loader.face(path, size)
		if err != nil {
			s.log.WithFields(logrus.Fields{"font": name, "source": s.source}).Debugf("skip: %v", err)
			continue
		}
		return face, true
	}
	return nil, false
}

// candidates lists existing files in dir whose base name is name and whose
// extension is a font extension, compared case-insensitively.
func (s *dirStrategy) candidates(name string) []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var found []string
	for _, ext := range Extensions {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			fileExt := filepath.Ext(e.Name())
			if strings.EqualFold(fileExt, ext) && strings.TrimSuffix(e.Name(), fileExt) == name {
				found = append(found, filepath.Join(s.dir, e.Name()))
			}
		}
	}
	return found
}

// systemStrategy maps "[System] <name>" to OS font files.
type systemStrategy struct {
	table  map[string][]string
	loader *loader
	log    logrus.FieldLogger
}

func (s *systemStrategy) TryResolve(name string, size int) (font.Face, bool) {
	sysName, ok := strings.CutPrefix(name, SystemPrefix)
	if !ok {
		return nil, false
	}
	for _, path := range s.table[strings.TrimSpace(sysName)] {
		if !regularFile(path) {
			continue
		}
		face, err := s.loader.face(path, size)
		if err != nil {
			s.log.WithFields(logrus.Fields{"font": name, "source": "system"}).Debugf("skip: %v", err)
			continue
		}
		return face, true
	}
	return nil, false
}

// pathStrategy treats the name as a font file path.
type pathStrategy struct {
	loader *loader
	log    logrus.FieldLogger
}

func (s *pathStrategy) TryResolve(name string, size int) (font.Face, bool) {
	if !regularFile(name) {
		return nil, false
	}
	face, err := s.loader.face(name, size)
	if err != nil {
		s.log.WithFields(logrus.Fields{"font": name, "source": "path"}).Debugf("skip: %v", err)
		return nil, false
	}
	return face, true
}

// Built-in Go fonts selectable by name.
var builtins = map[string][]byte{
	"Go Regular": goregular.TTF,
	"Go Bold":    gobold.TTF,
	"Go Mono":    gomono.TTF,
}

// BuiltinNames lists the embedded Go font names.
func BuiltinNames() []string {
	return []string{"Go Regular", "Go Bold", "Go Mono"}
}

type builtinStrategy struct{}

func (builtinStrategy) TryResolve(name string, size int) (font.Face, bool) {
	data, ok := builtins[name]
	if !ok {
		return nil, false
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, false
	}
	face, err := newFace(f, size)
	if err != nil {
		return nil, false
	}
	return face, true
}
