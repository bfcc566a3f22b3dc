package binary

import (
	"runtime"
)

// Platform identifies the operating system and architecture a native
// library is built for.
type Platform struct {
	OS   string
	Arch string
}

// Current returns the Platform of the running process.
func Current() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Triple returns the target triple of the platform, such as
// "x86_64-unknown-linux-gnu".
func (p Platform) Triple() (string, error) {
	var arch, vendorOS string

	switch p.Arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	default:
		return "", &FetchError{Reason: "unsupported architecture " + p.Arch}
	}

	switch p.OS {
	case "linux":
		vendorOS = "unknown-linux-gnu"
	case "darwin":
		vendorOS = "apple-darwin"
	case "windows":
		vendorOS = "pc-windows-msvc"
	case "freebsd":
		vendorOS = "unknown-freebsd"
	default:
		return "", &FetchError{Reason: "unsupported operating system " + p.OS}
	}
	return arch + "-" + vendorOS, nil
}

// LibraryExt returns the dynamic library file extension of the platform.
func (p Platform) LibraryExt() string {
	switch p.OS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default: // linux, *bsd, etc
		return ".so"
	}
}

// ResolveFilename returns the expected native library filename for |p|,
// of the form sqlite_<triple><ext>.
func ResolveFilename(p Platform) (string, error) {
	triple, err := p.Triple()
	if err != nil {
		return "", err
	}
	return "sqlite_" + triple + p.LibraryExt(), nil
}
