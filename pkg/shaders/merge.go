package shaders

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/bmatcuk/doublestar/v4"
)

// File is a winning entry of the merged tree
type File struct {
	// Path is the clean slash path relative to the tree root
	Path   string
	Source string
	Size   int64

	open func() (io.ReadCloser, error)
}

// Open returns the content of the file
func (f File) Open() (io.ReadCloser, error) {
	return f.open()
}

// Rejection records an entry left out of the tree as unsafe
type Rejection struct {
	Source string
	Entry  string
	Reason string
}

// Tree is the conflict-resolved union of all sources
type Tree struct {
	files    map[string]File
	folded   map[string]string
	dirs     map[string]bool
	rejected []Rejection
	sources  []string
}

func newTree() *Tree {
	return &Tree{
		files:  make(map[string]File),
		folded: make(map[string]string),
		dirs:   make(map[string]bool),
	}
}

// Paths returns all file paths, sorted
func (t *Tree) Paths() []string {
	out := make([]string, 0, len(t.files))
	for p := range t.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Get returns the winning file at path
func (t *Tree) Get(p string) (File, bool) {
	f, ok := t.files[p]
	return f, ok
}

// Len is the number of files in the tree
func (t *Tree) Len() int {
	return len(t.files)
}

// Rejected lists the unsafe entries left out, in merge order
func (t *Tree) Rejected() []Rejection {
	out := make([]Rejection, len(t.rejected))
	copy(out, t.rejected)
	return out
}

// Sources lists source names in the order they were applied
func (t *Tree) Sources() []string {
	out := make([]string, len(t.sources))
	copy(out, t.sources)
	return out
}

// put stores f, replacing whatever it conflicts with: the same path in a
// different letter case (the game reads it through a case-insensitive
// layer), a file where f needs a directory, or files below f's path.
func (t *Tree) put(f File) (replaced []string) {
	lower := strings.ToLower(f.Path)
	if prev, ok := t.folded[lower]; ok {
		if prev != f.Path {
			t.remove(prev)
		}
		replaced = append(replaced, prev)
	}

	for dir := path.Dir(f.Path); dir != "."; dir = path.Dir(dir) {
		if prev, ok := t.folded[strings.ToLower(dir)]; ok {
			t.remove(prev)
			replaced = append(replaced, prev)
		}
	}

	if t.dirs[lower] {
		prefix := lower + "/"
		for key, prev := range t.folded {
			if strings.HasPrefix(key, prefix) {
				t.remove(prev)
				replaced = append(replaced, prev)
			}
		}
	}

	t.files[f.Path] = f
	t.folded[lower] = f.Path
	for dir := path.Dir(lower); dir != "."; dir = path.Dir(dir) {
		t.dirs[dir] = true
	}
	return replaced
}

func (t *Tree) remove(p string) {
	delete(t.files, p)
	delete(t.folded, strings.ToLower(p))
}

type rankedSource struct {
	src  Source
	rank int
}

// Order returns sources in the order Merge applies them: ascending rank,
// list position breaking ties. Sources without an explicit rank are
// ranked by their list position.
func Order(sources []Source) []Source {
	ranked := make([]rankedSource, len(sources))
	for i, s := range sources {
		rank := i
		if o := s.Options(); o.Ranked {
			rank = o.Rank
		}
		ranked[i] = rankedSource{src: s, rank: rank}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].rank < ranked[j].rank
	})

	out := make([]Source, len(ranked))
	for i, r := range ranked {
		out[i] = r.src
	}
	return out
}

// Merge combines sources into one tree. Unsafe entries are skipped and
// listed in Tree.Rejected; a source whose every entry is unsafe fails the
// merge with ErrUnsafeEntry.
func Merge(ctx context.Context, sources []Source) (*Tree, error) {
	logger := logging.GetLogger("shaders")
	done := logging.LogOperationStart(logger, "merge")
	defer done()
	tree := newTree()

	for _, src := range Order(sources) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCancelled, "shader merge cancelled")
		}
		if err := tree.apply(ctx, src); err != nil {
			return nil, err
		}
	}

	logger.Debug().
		Int("files", tree.Len()).
		Int("rejected", len(tree.rejected)).
		Strs("sources", tree.sources).
		Msg("Merged shader sources")
	return tree, nil
}

func (t *Tree) apply(ctx context.Context, src Source) error {
	logger := logging.GetLogger("shaders").With().Str("source", src.Name()).Logger()
	opts := src.Options()

	mounts := make([]Mount, 0, len(opts.Mounts))
	for _, m := range opts.Mounts {
		from, err := validMountPath(m.From)
		if err != nil {
			return err
		}
		to, err := validMountPath(m.To)
		if err != nil {
			return err
		}
		mounts = append(mounts, Mount{From: from, To: to})
	}

	excludes := append(append([]string{}, DefaultExclude...), opts.Exclude...)
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Newf(errors.ErrInvalidInput, "invalid exclude pattern %q", pattern).
				WithDetail("source", src.Name())
		}
	}

	entries, err := src.Entries(ctx)
	if err != nil {
		if errors.GetErrorCode(err) != errors.ErrUnknown {
			return err
		}
		return errors.Wrapf(err, errors.ErrSourceAccess, "cannot read shader source %s", src.Name()).
			WithDetail("source", src.Name())
	}

	accepted, rejected := 0, 0
	for _, e := range entries {
		if e.Mode.IsDir() {
			continue
		}

		rel, reason := cleanEntryName(e.Name)
		if reason == "" {
			reason = checkMode(e.Mode)
		}
		if reason != "" {
			rejected++
			t.rejected = append(t.rejected, Rejection{Source: src.Name(), Entry: e.Name, Reason: reason})
			logger.Warn().Str("entry", e.Name).Str("reason", reason).Msg("Rejected unsafe shader entry")
			continue
		}
		if rel == "" {
			continue
		}

		if opts.StripRoot {
			if i := strings.Index(rel, "/"); i >= 0 {
				rel = rel[i+1:]
			}
		}

		if excluded(rel, excludes) {
			logger.Trace().Str("entry", rel).Msg("Excluded")
			continue
		}

		target, ok := mountTarget(rel, mounts)
		if !ok {
			continue
		}

		accepted++
		entry := e
		for _, prev := range t.put(File{Path: target, Source: src.Name(), Size: e.Size, open: entry.Open}) {
			logger.Debug().Str("path", target).Str("replaced", prev).Msg("Shader file overridden")
		}
	}

	if accepted == 0 && rejected > 0 {
		return errors.Newf(errors.ErrUnsafeEntry, "shader source %s contains only unsafe entries", src.Name()).
			WithDetail("source", src.Name()).
			WithDetail("rejected", rejected)
	}

	t.sources = append(t.sources, src.Name())
	logger.Debug().Int("files", accepted).Int("rejected", rejected).Msg("Applied shader source")
	return nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// a pattern naming a directory excludes its content
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok && !strings.HasSuffix(pattern, "/**") {
			return true
		}
	}
	return false
}
