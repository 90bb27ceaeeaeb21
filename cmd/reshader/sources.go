package reshader

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/reshader/pkg/archive"
	"github.com/arthur-debert/reshader/pkg/catalog"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/fetch"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/arthur-debert/reshader/pkg/paths"
	"github.com/arthur-debert/reshader/pkg/shaders"
	"github.com/spf13/afero"
)

var installerVersion = regexp.MustCompile(`(\d+\.\d+\.\d+)`)

// openInstaller opens the setup package given with --installer, or
// downloads the requested (default latest) release. It returns the package
// and the version it contains.
func (a *app) openInstaller(ctx context.Context, fetcher *fetch.Client, local, version string) (*archive.Package, string, error) {
	if local != "" {
		local = paths.ExpandHome(local)
		pkg, err := archive.OpenFile(local)
		if err != nil {
			return nil, "", err
		}
		if version == "" {
			if m := installerVersion.FindString(filepath.Base(local)); m != "" {
				version = m
			} else {
				version = "unknown"
			}
		}
		return pkg, fetch.Display(version), nil
	}

	if version == "" || version == "latest" {
		latest, err := fetcher.LatestVersion(ctx)
		if err != nil {
			return nil, "", err
		}
		version = latest
	}
	file, err := fetcher.Installer(ctx, version, a.cfg.Install.Flavor)
	if err != nil {
		return nil, "", err
	}
	pkg, err := archive.OpenFile(file)
	if err != nil {
		return nil, "", err
	}
	return pkg, fetch.Display(version), nil
}

// collectionSources turns catalog collections into sources, as git
// checkouts or, with snapshot, as downloaded zip archives
func (a *app) collectionSources(ctx context.Context, fetcher *fetch.Client, cols []catalog.Collection, snapshot bool) ([]shaders.Source, error) {
	logger := logging.GetLogger("cmd")
	exclude := shaders.WithExclude(a.cfg.Shaders.Exclude...)

	sources := make([]shaders.Source, 0, len(cols))
	for _, col := range cols {
		url := col.ArchiveURL()
		if !snapshot || url == "" {
			if snapshot {
				logger.Info().Str("collection", col.Name).Msg("No snapshot download, cloning instead")
			}
			sources = append(sources, col.Source(a.paths, exclude))
			continue
		}
		name := paths.SanitizeName(col.Name+"-"+col.Branch) + ".zip"
		file, err := fetcher.Cached(ctx, url, name)
		if err != nil {
			return nil, err
		}
		pkg, err := archive.OpenFile(file)
		if err != nil {
			return nil, err
		}
		sources = append(sources, col.ArchiveSource(pkg, exclude))
	}
	return sources, nil
}

// parseShaderSource reads a --shaders value: a git URL (with an optional
// #branch), a zip file or a directory
func (a *app) parseShaderSource(spec string) (shaders.Source, error) {
	exclude := shaders.WithExclude(a.cfg.Shaders.Exclude...)

	if isGitURL(spec) {
		url, branch, _ := strings.Cut(spec, "#")
		name := strings.TrimSuffix(filepath.Base(strings.TrimSuffix(url, "/")), ".git")
		dir := a.paths.GitCacheDir(paths.SanitizeName(url))
		return shaders.NewGitSource(name, url, branch, dir, exclude), nil
	}

	location := paths.ExpandHome(spec)
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid shader source %q", spec)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "shader source %s not found", spec).
			WithDetail("path", abs)
	}

	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	switch {
	case info.IsDir():
		return shaders.NewDirSource(filepath.Base(abs), afero.NewOsFs(), abs, exclude), nil
	case strings.EqualFold(filepath.Ext(abs), ".zip"):
		src, err := shaders.NewArchiveSourceFile(name, abs, exclude)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "shader source %s is neither a directory nor a zip file", spec).
		WithDetail("path", abs)
}

func isGitURL(spec string) bool {
	base, _, _ := strings.Cut(spec, "#")
	return strings.Contains(base, "://") || strings.HasPrefix(base, "git@") || strings.HasSuffix(base, ".git")
}
