package shaders

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/arthur-debert/reshader/pkg/record"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/afero"
)

// GitSource keeps a clone of a shader repository in a cache directory and
// serves its working tree.
type GitSource struct {
	name   string
	url    string
	branch string
	dir    string
	opts   Options

	synced bool
	commit string
}

// NewGitSource creates a source cloning url into dir. An empty branch
// follows the remote HEAD.
func NewGitSource(name, url, branch, dir string, opts ...Option) *GitSource {
	return &GitSource{name: name, url: url, branch: branch, dir: dir, opts: buildOptions(opts)}
}

// Name implements Source
func (g *GitSource) Name() string { return g.name }

// Options implements Source
func (g *GitSource) Options() Options { return g.opts }

// URL is the remote the source clones from
func (g *GitSource) URL() string { return g.url }

// Commit is the checked out commit after Sync
func (g *GitSource) Commit() string { return g.commit }

// Describe implements Describer
func (g *GitSource) Describe() Description {
	return Description{Kind: record.KindGit, Location: g.url, Revision: g.commit}
}

// Sync clones the repository on first use and fast-forwards it afterwards.
// When an update fails but a checkout exists, the checkout is used as is.
func (g *GitSource) Sync(ctx context.Context) error {
	logger := logging.GetLogger("shaders").With().Str("source", g.name).Str("url", g.url).Logger()

	repo, err := git.PlainOpen(g.dir)
	switch {
	case stderrors.Is(err, git.ErrRepositoryNotExists):
		repo, err = g.clone(ctx)
		if err != nil {
			return err
		}
		logger.Info().Str("dir", g.dir).Msg("Cloned shader repository")
	case err != nil:
		return errors.Wrapf(err, errors.ErrGit, "cannot open checkout of %s", g.name).
			WithDetail("source", g.name).WithDetail("path", g.dir)
	default:
		if err := g.pull(ctx, repo); err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), errors.ErrCancelled, "shader repository update cancelled")
			}
			logger.Warn().Err(err).Msg("Cannot update shader repository, using existing checkout")
		}
	}

	head, err := repo.Head()
	if err != nil {
		return errors.Wrapf(err, errors.ErrGit, "checkout of %s has no HEAD", g.name).
			WithDetail("source", g.name)
	}
	g.commit = head.Hash().String()
	g.synced = true
	logger.Debug().Str("commit", g.commit).Msg("Shader repository ready")
	return nil
}

func (g *GitSource) clone(ctx context.Context) (*git.Repository, error) {
	if err := os.MkdirAll(filepath.Dir(g.dir), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrGit, "cannot create cache directory for %s", g.name)
	}

	opts := &git.CloneOptions{
		URL:          g.url,
		SingleBranch: true,
	}
	if g.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.branch)
	}

	repo, err := git.PlainCloneContext(ctx, g.dir, false, opts)
	if err != nil {
		// a failed clone leaves a partial .git behind
		_ = os.RemoveAll(g.dir)
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrCancelled, "shader repository clone cancelled")
		}
		return nil, errors.Wrapf(err, errors.ErrGit, "cannot clone %s", g.url).
			WithDetail("source", g.name).WithDetail("url", g.url)
	}
	return repo, nil
}

func (g *GitSource) pull(ctx context.Context, repo *git.Repository) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	opts := &git.PullOptions{RemoteName: git.DefaultRemoteName, SingleBranch: true}
	if g.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.branch)
	}

	err = wt.PullContext(ctx, opts)
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

// Entries implements Source, syncing first if needed
func (g *GitSource) Entries(ctx context.Context) ([]RawEntry, error) {
	if !g.synced {
		if err := g.Sync(ctx); err != nil {
			return nil, err
		}
	}
	return NewDirSource(g.name, afero.NewOsFs(), g.dir).Entries(ctx)
}
