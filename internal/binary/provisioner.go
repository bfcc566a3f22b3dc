// Package binary provisions the platform-specific SQLite shared library:
// it maps the running platform to an expected filename, and makes that file
// available in a per-user cache, copying it from a bundle shipped alongside
// the executable or downloading it from a versioned release.
package binary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/connerohnesorge/sqlite-native-go/internal/metrics"
)

// ModulePath is the import path whose build-info version selects the
// release tag of remotely fetched libraries.
const ModulePath = "github.com/connerohnesorge/sqlite-native-go"

// DefaultReleaseURL is the template remote libraries are downloaded from.
const DefaultReleaseURL = "https://github.com/connerohnesorge/sqlite-native-go/releases/download/{tag}/{filename}"

// CacheSubdir is the folder under the user cache root holding libraries.
const CacheSubdir = "sqlite_native"

// Config configures a Provisioner. Zero values select defaults.
type Config struct {
	CacheDir   string `long:"cache-dir" env:"CACHE_DIR" description:"Directory caching the native library (default: <user cache dir>/sqlite_native)"`
	BundleDir  string `long:"bundle-dir" env:"BUNDLE_DIR" description:"Directory of bundled native libraries (default: binaries/ next to the executable)"`
	ReleaseURL string `long:"release-url" env:"RELEASE_URL" description:"Release download URL template, with {tag} and {filename} placeholders. Supports http(s)://, s3:// and gs://"`
	ReleaseTag string `long:"release-tag" env:"RELEASE_TAG" description:"Release tag to download (default: the module version of this binary)"`
	SHA256     string `long:"sha256" env:"SHA256" description:"Expected hex SHA-256 of an installed library. Verified on install only"`
	S3Region   string `long:"s3-region" env:"S3_REGION" description:"Region of s3:// release buckets"`
	S3Endpoint string `long:"s3-endpoint" env:"S3_ENDPOINT" description:"Endpoint of an S3-compatible service hosting s3:// releases"`
	AWSProfile string `long:"aws-profile" env:"AWS_PROFILE" description:"AWS shared-credentials profile for s3:// releases"`
}

// Provisioner resolves, caches and fetches the native library of a Platform.
type Provisioner struct {
	cfg      Config
	platform Platform
	fs       afero.Fs
	sources  map[string]Source
}

// installs collapses concurrent installs of one destination path, across
// every Provisioner of the process.
var installs singleflight.Group

// readBuildInfo is swapped by tests.
var readBuildInfo = debug.ReadBuildInfo

// New returns a Provisioner for the current platform and the OS filesystem.
func New(cfg Config) *Provisioner {
	return &Provisioner{
		cfg:      cfg,
		platform: Current(),
		fs:       afero.NewOsFs(),
		sources:  defaultSources(cfg),
	}
}

// Platform returns the platform the Provisioner resolves libraries for.
func (p *Provisioner) Platform() Platform {
	return p.platform
}

// Filename returns the expected library filename.
func (p *Provisioner) Filename() (string, error) {
	return ResolveFilename(p.platform)
}

// CacheDir returns the configured or default cache directory.
func (p *Provisioner) CacheDir() (string, error) {
	if p.cfg.CacheDir != "" {
		return p.cfg.CacheDir, nil
	}
	root, err := os.UserCacheDir()
	if err != nil {
		return "", &FetchError{Reason: "resolving user cache directory", Err: err}
	}
	return filepath.Join(root, CacheSubdir), nil
}

// CachePath returns the path the library is cached at.
func (p *Provisioner) CachePath() (string, error) {
	name, err := p.Filename()
	if err != nil {
		return "", err
	}
	dir, err := p.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Fetch returns a filesystem path of a usable native library. A non-empty
// |override| is returned as-is, bypassing the cache entirely. Otherwise the
// cache path is returned once a file is present there, installing it first
// from the local bundle or the remote release if needed. Presence alone
// marks the cache as valid: an existing file is never re-verified.
func (p *Provisioner) Fetch(ctx context.Context, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	dest, err := p.CachePath()
	if err != nil {
		return "", err
	}
	var name = filepath.Base(dest)
	if err = p.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", &FetchError{Filename: name, Reason: "creating cache directory", Err: err}
	}
	if ok, err := p.exists(dest); err != nil {
		return "", err
	} else if ok {
		return dest, nil
	}

	// The install outlives |ctx|, which only bounds this caller's wait.
	var ch = installs.DoChan(dest, func() (interface{}, error) {
		if ok, err := p.exists(dest); err != nil || ok {
			return nil, err
		}
		return nil, p.install(context.WithoutCancel(ctx), dest)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return dest, nil
	case <-ctx.Done():
		return "", &FetchError{Filename: name, Reason: "waiting for install", Err: ctx.Err()}
	}
}

// exists reports whether |path| is present. A failure to stat it is an
// error rather than an absence.
func (p *Provisioner) exists(path string) (bool, error) {
	ok, err := afero.Exists(p.fs, path)
	if err != nil {
		return false, &FetchError{Filename: filepath.Base(path), Reason: "inspecting " + path, Err: err}
	}
	return ok, nil
}

// install copies or downloads the library into |dest|.
func (p *Provisioner) install(ctx context.Context, dest string) error {
	var name = filepath.Base(dest)

	local, ok, err := p.localSource(name)
	if err != nil {
		return p.failed(name, "local", "locating bundled library", err)
	} else if ok {
		src, err := p.fs.Open(local)
		if err != nil {
			return p.failed(name, "local", "opening bundled library", err)
		}
		defer src.Close()

		n, err := p.writeAtomic(dest, src)
		if err != nil {
			return p.failed(name, "local", "copying bundled library", err)
		}
		p.installed(dest, local, "local", n)
		return nil
	}

	tag, ok := p.releaseTag()
	if !ok {
		metrics.BinaryFetchTotal.WithLabelValues("none", metrics.Fail).Inc()
		return &FetchError{Filename: name, Reason: "no bundled library and no resolvable release tag"}
	}
	var rawURL = p.releaseURL(tag, name)

	body, err := openRemote(ctx, p.sources, rawURL)
	if err != nil {
		return p.failed(name, "remote", "downloading "+rawURL, err)
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(rawURL, ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return p.failed(name, "remote", "decompressing "+rawURL, err)
		}
		defer gz.Close()
		r = gz
	}

	n, err := p.writeAtomic(dest, r)
	if err != nil {
		return p.failed(name, "remote", "downloading "+rawURL, err)
	}
	p.installed(dest, rawURL, "remote", n)
	return nil
}

// localSource returns the bundled library path, if one exists.
func (p *Provisioner) localSource(name string) (string, bool, error) {
	var dir = p.cfg.BundleDir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", false, nil
		}
		dir = filepath.Join(filepath.Dir(exe), "binaries")
	}
	var path = filepath.Join(dir, name)
	if ok, err := afero.Exists(p.fs, path); err != nil || !ok {
		return "", false, err
	}
	return path, true, nil
}

// releaseTag resolves the release tag from configuration, or from the
// version this module was built at. Development builds have no tag.
func (p *Provisioner) releaseTag() (string, bool) {
	if p.cfg.ReleaseTag != "" {
		return p.cfg.ReleaseTag, true
	}
	bi, ok := readBuildInfo()
	if !ok {
		return "", false
	}
	var version string
	if bi.Main.Path == ModulePath {
		version = bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path == ModulePath {
			version = dep.Version
			if dep.Replace != nil {
				version = dep.Replace.Version
			}
		}
	}
	if version == "" || version == "(devel)" {
		return "", false
	}
	return version, true
}

// releaseURL expands the release URL template.
func (p *Provisioner) releaseURL(tag, name string) string {
	var tmpl = p.cfg.ReleaseURL
	if tmpl == "" {
		tmpl = DefaultReleaseURL
	}
	return strings.NewReplacer("{tag}", tag, "{filename}", name).Replace(tmpl)
}

// writeAtomic streams |r| into a temporary file beside |dest|, verifies it,
// and renames it onto |dest|. |dest| is untouched on any failure.
func (p *Provisioner) writeAtomic(dest string, r io.Reader) (int64, error) {
	tmp, err := afero.TempFile(p.fs, filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return 0, err
	}
	var committed bool
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = p.fs.Remove(tmp.Name())
		}
	}()

	var hash = sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash), r)
	if err != nil {
		return n, err
	}
	if err = tmp.Sync(); err != nil {
		return n, err
	}
	if err = tmp.Close(); err != nil {
		return n, err
	}
	if want := strings.ToLower(p.cfg.SHA256); want != "" {
		if got := hex.EncodeToString(hash.Sum(nil)); got != want {
			return n, errors.Errorf("checksum mismatch: got sha256 %s, expected %s", got, want)
		}
	}
	if err = p.fs.Chmod(tmp.Name(), 0o755); err != nil {
		return n, err
	}
	if err = p.fs.Rename(tmp.Name(), dest); err != nil {
		return n, err
	}
	committed = true
	return n, nil
}

func (p *Provisioner) installed(dest, from, source string, n int64) {
	metrics.BinaryFetchTotal.WithLabelValues(source, metrics.Ok).Inc()
	metrics.BinaryFetchBytesTotal.Add(float64(n))

	log.WithFields(log.Fields{
		"path":   dest,
		"from":   from,
		"source": source,
		"size":   humanize.Bytes(uint64(n)),
	}).Info("installed sqlite native library")
}

func (p *Provisioner) failed(name, source, reason string, err error) error {
	metrics.BinaryFetchTotal.WithLabelValues(source, metrics.Fail).Inc()
	return &FetchError{Filename: name, Reason: reason, Err: err}
}
