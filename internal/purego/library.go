package purego

import (
	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// Library represents a loaded SQLite shared library
type Library struct {
	path   string
	handle uintptr
}

// LoadLibrary loads the SQLite shared library at path. Each call performs its
// own dlopen, so every connection holds an independent reference that it
// releases on Close.
func LoadLibrary(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load SQLite library %s", path)
	}
	return &Library{path: path, handle: handle}, nil
}

// Path returns the filesystem path the library was loaded from
func (l *Library) Path() string {
	return l.path
}

// Close closes the loaded library
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	var err = purego.Dlclose(l.handle)
	l.handle = 0
	return err
}

// RegisterFunc binds the exported symbol |name| to the function pointer |fn|.
// Unlike purego.RegisterLibFunc, a missing symbol is reported as an error
// rather than a panic.
func (l *Library) RegisterFunc(fn interface{}, name string) error {
	sym, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", name)
	}
	purego.RegisterFunc(fn, sym)
	return nil
}
