package catalog

import (
	"strings"

	"github.com/arthur-debert/reshader/pkg/archive"
	"github.com/arthur-debert/reshader/pkg/paths"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/arthur-debert/reshader/pkg/shaders"
)

// mountOptions places Shaders/ and Textures/ of the collection
func (c Collection) mountOptions(extra []shaders.Option) []shaders.Option {
	opts := []shaders.Option{shaders.WithMount("Shaders", c.InstallPath)}
	if c.TextureInstallPath != "" {
		opts = append(opts, shaders.WithMount("Textures", c.TextureInstallPath))
	}
	return append(opts, extra...)
}

// GitSource is a collection served from a git checkout in the cache
type GitSource struct {
	*shaders.GitSource
}

// Describe implements shaders.Describer
func (g *GitSource) Describe() shaders.Description {
	d := g.GitSource.Describe()
	d.Kind = record.KindCatalog
	return d
}

// Source returns a git source keeping its checkout in the cache directory
func (c Collection) Source(p paths.Paths, opts ...shaders.Option) *GitSource {
	dir := p.GitCacheDir(c.cacheName())
	return &GitSource{GitSource: shaders.NewGitSource(c.Name, c.Repository, c.Branch, dir, c.mountOptions(opts)...)}
}

// ArchiveSource serves a downloaded snapshot of the collection. GitHub
// snapshots keep everything below a single top directory, which is
// stripped.
func (c Collection) ArchiveSource(pkg *archive.Package, opts ...shaders.Option) shaders.Source {
	all := append([]shaders.Option{shaders.WithStripRoot()}, c.mountOptions(opts)...)
	return &archiveSource{ArchiveSource: shaders.NewArchiveSource(c.Name, pkg, all...), location: c.ArchiveURL()}
}

type archiveSource struct {
	*shaders.ArchiveSource
	location string
}

func (a *archiveSource) Describe() shaders.Description {
	return shaders.Description{Kind: record.KindCatalog, Location: a.location}
}

// ArchiveURL is the snapshot download of the collection branch. Only GitHub
// repositories have one.
func (c Collection) ArchiveURL() string {
	repo := strings.TrimSuffix(strings.TrimSuffix(c.Repository, "/"), ".git")
	if !strings.HasPrefix(repo, "https://github.com/") {
		return ""
	}
	if c.Branch == "" {
		return repo + "/archive/HEAD.zip"
	}
	return repo + "/archive/refs/heads/" + c.Branch + ".zip"
}

// cacheName keeps collections sharing a repository on separate checkouts
func (c Collection) cacheName() string {
	if c.Branch == "" {
		return c.Name
	}
	return c.Name + "-" + c.Branch
}
