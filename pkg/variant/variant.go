// Package variant maps a graphics API and CPU architecture to the framework
// build inside the installer and the file name it is installed under.
package variant

import (
	"debug/pe"
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/filesystem"
	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/arthur-debert/reshader/pkg/logging"
)

// Arch is the CPU architecture of a game executable
type Arch string

const (
	X64 Arch = "x64"
	X86 Arch = "x86"
)

// ParseArch accepts x64/amd64/64 and x86/i386/32; empty means X64
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "x64", "amd64", "x86_64", "64":
		return X64, nil
	case "x86", "i386", "i686", "32":
		return X86, nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown architecture %q", s).WithDetail("value", s)
}

// Spec is one row of the variant table
type Spec struct {
	API  graphics.API
	Arch Arch
	// SourceEntry is the entry name inside the installer package
	SourceEntry string
	// InstalledFile is the file name written into the game directory
	InstalledFile string
}

var sourceEntries = map[Arch]string{
	X64: "ReShade64.dll",
	X86: "ReShade32.dll",
}

var installedFiles = map[graphics.API]string{
	graphics.DirectX9:     "d3d9.dll",
	graphics.DirectX10_11: "d3d11.dll",
	graphics.DirectX12:    "dxgi.dll",
	graphics.OpenGL:       "opengl32.dll",
	graphics.Vulkan:       "vulkan-1.dll",
}

// Select returns the Spec for api and arch. Unknown is not selectable.
func Select(api graphics.API, arch Arch) (Spec, error) {
	file, ok := installedFiles[api]
	if !ok {
		return Spec{}, errors.Newf(errors.ErrUnsupportedAPI, "no framework variant for graphics API %s", api).
			WithDetail("api", api.String())
	}
	if arch == "" {
		arch = X64
	}
	entry, ok := sourceEntries[arch]
	if !ok {
		return Spec{}, errors.Newf(errors.ErrInvalidInput, "unknown architecture %q", arch).
			WithDetail("arch", string(arch))
	}
	return Spec{API: api, Arch: arch, SourceEntry: entry, InstalledFile: file}, nil
}

// Resolve picks the API to install for: override when set, otherwise the
// detected one. Unknown on both sides is an ErrUnsupportedAPI the caller is
// expected to answer by asking the user.
func Resolve(detected, override graphics.API, arch Arch) (Spec, graphics.API, error) {
	api := detected
	if override != graphics.Unknown {
		api = override
	}
	if api == graphics.Unknown {
		return Spec{}, graphics.Unknown, errors.New(errors.ErrUnsupportedAPI,
			"graphics API could not be detected; choose one explicitly").
			WithDetail("detected", detected.String())
	}
	spec, err := Select(api, arch)
	if err != nil {
		return Spec{}, api, err
	}
	return spec, api, nil
}

// RendererFiles lists every file name the table can install
func RendererFiles() []string {
	files := make([]string, 0, len(installedFiles))
	for _, api := range graphics.Supported() {
		files = append(files, installedFiles[api])
	}
	return files
}

// IsRendererFile reports whether name is one of RendererFiles, ignoring case
func IsRendererFile(name string) bool {
	for _, f := range RendererFiles() {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// DetectArch returns the architecture of the largest executable in
// gamePath, X64 when there is none or it cannot be parsed.
func DetectArch(fsys filesystem.FS, gamePath string) Arch {
	logger := logging.GetLogger("variant")

	exes, err := graphics.ScanExecutables(fsys, gamePath)
	if err != nil || len(exes) == 0 {
		logger.Debug().Str("game", gamePath).Msg("No executable found, assuming x64")
		return X64
	}

	primary := exes[0]
	switch primary.Machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		logger.Debug().Str("exe", primary.Name).Msg("Detected 32-bit executable")
		return X86
	default:
		return X64
	}
}
