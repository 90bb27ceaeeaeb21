package graphics

import (
	"debug/pe"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/logging"
)

// Executable is a parsed Windows executable found in a game directory
type Executable struct {
	Name    string
	Size    int64
	Machine uint16
	// Imports holds the lower-cased names of imported DLLs, sorted
	Imports []string
}

// ScanExecutables parses every *.exe directly inside dir. Files that are
// not valid PE images are skipped. The result is sorted by size, largest
// first, then by name.
func ScanExecutables(fsys filesystem.FS, dir string) ([]Executable, error) {
	logger := logging.GetLogger("graphics")

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var exes []Executable
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".exe") {
			continue
		}
		exe, err := readExecutable(fsys, filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Debug().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable executable")
			continue
		}
		exes = append(exes, exe)
	}

	sort.SliceStable(exes, func(i, j int) bool {
		if exes[i].Size != exes[j].Size {
			return exes[i].Size > exes[j].Size
		}
		return exes[i].Name < exes[j].Name
	})
	return exes, nil
}

func readExecutable(fsys filesystem.FS, path string) (Executable, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Executable{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return Executable{}, err
	}

	image, err := pe.NewFile(f)
	if err != nil {
		return Executable{}, err
	}
	defer func() { _ = image.Close() }()

	exe := Executable{
		Name:    filepath.Base(path),
		Size:    info.Size(),
		Machine: image.Machine,
	}

	// ImportedSymbols yields "symbol:dll" pairs
	symbols, err := image.ImportedSymbols()
	if err != nil {
		return exe, nil
	}
	seen := make(map[string]bool)
	for _, sym := range symbols {
		idx := strings.LastIndex(sym, ":")
		if idx < 0 {
			continue
		}
		dll := strings.ToLower(sym[idx+1:])
		if !seen[dll] {
			seen[dll] = true
			exe.Imports = append(exe.Imports, dll)
		}
	}
	sort.Strings(exe.Imports)
	return exe, nil
}
