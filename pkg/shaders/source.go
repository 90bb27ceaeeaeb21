// Package shaders merges shader and preset sources into one tree.
//
// Sources are applied in ascending rank; at equal ranks the order of the
// list is kept. A later source overwrites an earlier one at the same
// relative path, so the last source wins. Entries that could escape the
// target directory or are not regular files are rejected and reported
// through Tree.Rejected.
package shaders

import (
	"context"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
)

// DefaultExclude is applied to every source on top of its own excludes
var DefaultExclude = []string{".git/**", "**/.git/**"}

// RawEntry is one file as a source reports it. Name is relative to the
// source root in slash or backslash form and is not trusted.
type RawEntry struct {
	Name string
	Mode fs.FileMode
	Size int64
	Open func() (io.ReadCloser, error)
}

// Source contributes files to a merge
type Source interface {
	Name() string
	Options() Options
	Entries(ctx context.Context) ([]RawEntry, error)
}

// Description says where a source comes from, for installation records
type Description struct {
	Kind     string
	Location string
	// Revision is the commit of git sources
	Revision string
}

// Describer is implemented by sources that can describe their origin
type Describer interface {
	Describe() Description
}

// Describe returns the description of src, or an empty one
func Describe(src Source) Description {
	if d, ok := src.(Describer); ok {
		return d.Describe()
	}
	return Description{}
}

// Mount places the files below From (relative to the source root) at To
// (relative to the merged tree). An empty From takes the whole source.
type Mount struct {
	From string
	To   string
}

// Options are the merge settings of a source
type Options struct {
	Rank int
	// Ranked is set when Rank was given explicitly; otherwise the
	// source's position in the merge list is used.
	Ranked    bool
	Mounts    []Mount
	Exclude   []string
	StripRoot bool
}

// Option configures a source
type Option func(*Options)

// WithRank sets an explicit rank. Higher ranks are applied later and win.
func WithRank(rank int) Option {
	return func(o *Options) {
		o.Rank = rank
		o.Ranked = true
	}
}

// WithMount adds a mount. Sources with mounts only contribute files below
// one of their mount points.
func WithMount(from, to string) Option {
	return func(o *Options) {
		o.Mounts = append(o.Mounts, Mount{From: from, To: to})
	}
}

// WithExclude adds doublestar patterns matched against entry paths after
// StripRoot and before mounts.
func WithExclude(patterns ...string) Option {
	return func(o *Options) {
		o.Exclude = append(o.Exclude, patterns...)
	}
}

// WithStripRoot drops the single top-level directory that archive
// downloads wrap their content in.
func WithStripRoot() Option {
	return func(o *Options) {
		o.StripRoot = true
	}
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// cleanEntryName turns a raw name into a clean relative slash path. It
// returns a reason when the name is unsafe; an empty result with no reason
// means the name denotes the root itself.
func cleanEntryName(raw string) (string, string) {
	name := strings.ReplaceAll(raw, `\`, "/")

	if strings.HasPrefix(name, "/") {
		return "", "absolute path"
	}
	if len(name) >= 2 && name[1] == ':' && isLetter(name[0]) {
		return "", "absolute path"
	}

	var parts []string
	for _, seg := range strings.Split(name, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", "parent directory reference"
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "/"), ""
}

// checkMode rejects everything but regular files
func checkMode(mode fs.FileMode) string {
	switch {
	case mode&fs.ModeSymlink != 0:
		return "symbolic link"
	case mode&fs.ModeDevice != 0, mode&fs.ModeCharDevice != 0:
		return "device file"
	case mode&fs.ModeNamedPipe != 0:
		return "named pipe"
	case mode&fs.ModeSocket != 0:
		return "socket"
	case mode&fs.ModeIrregular != 0:
		return "irregular file"
	}
	return ""
}

// validMountPath accepts "" and clean relative paths without ".."
func validMountPath(p string) (string, error) {
	if p == "" || p == "." {
		return "", nil
	}
	clean, reason := cleanEntryName(p)
	if reason != "" {
		return "", errors.Newf(errors.ErrInvalidInput, "invalid mount path %q: %s", p, reason).
			WithDetail("path", p)
	}
	return clean, nil
}

// mountTarget maps rel through mounts; ok is false when no mount covers it.
// Mount points match case-insensitively.
func mountTarget(rel string, mounts []Mount) (string, bool) {
	if len(mounts) == 0 {
		return rel, true
	}
	for _, m := range mounts {
		switch {
		case m.From == "":
			return path.Join(m.To, rel), true
		case strings.EqualFold(rel, m.From):
			return path.Join(m.To, path.Base(rel)), true
		case len(rel) > len(m.From) && rel[len(m.From)] == '/' && strings.EqualFold(rel[:len(m.From)], m.From):
			return path.Join(m.To, rel[len(m.From)+1:]), true
		}
	}
	return "", false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
