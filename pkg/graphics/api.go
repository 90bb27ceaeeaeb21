// Package graphics classifies a game's graphics API from the files in its
// directory and the import tables of its executables.
package graphics

import (
	"strings"

	"github.com/arthur-debert/reshader/pkg/errors"
)

// API is a graphics API a game renders with
type API int

const (
	Unknown API = iota
	DirectX9
	DirectX10_11
	DirectX12
	OpenGL
	Vulkan
)

var apiNames = map[API]string{
	Unknown:      "unknown",
	DirectX9:     "d3d9",
	DirectX10_11: "d3d10_11",
	DirectX12:    "d3d12",
	OpenGL:       "opengl",
	Vulkan:       "vulkan",
}

var apiAliases = map[string]API{
	"unknown":  Unknown,
	"d3d9":     DirectX9,
	"dx9":      DirectX9,
	"d3d10_11": DirectX10_11,
	"d3d10":    DirectX10_11,
	"d3d11":    DirectX10_11,
	"dx10":     DirectX10_11,
	"dx11":     DirectX10_11,
	"d3d12":    DirectX12,
	"dx12":     DirectX12,
	"opengl":   OpenGL,
	"gl":       OpenGL,
	"vulkan":   Vulkan,
	"vk":       Vulkan,
}

// String returns the stable name used in records and on the command line
func (a API) String() string {
	if name, ok := apiNames[a]; ok {
		return name
	}
	return apiNames[Unknown]
}

// Supported lists every API except Unknown, in display order
func Supported() []API {
	return []API{DirectX9, DirectX10_11, DirectX12, OpenGL, Vulkan}
}

// DisplayName is the human-facing name
func (a API) DisplayName() string {
	switch a {
	case DirectX9:
		return "DirectX 9"
	case DirectX10_11:
		return "DirectX 10/11"
	case DirectX12:
		return "DirectX 12"
	case OpenGL:
		return "OpenGL"
	case Vulkan:
		return "Vulkan"
	}
	return "Unknown"
}

// ParseAPI accepts the stable names and common aliases, case-insensitively.
// The empty string parses as Unknown.
func ParseAPI(s string) (API, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Unknown, nil
	}
	if api, ok := apiAliases[s]; ok {
		return api, nil
	}
	return Unknown, errors.Newf(errors.ErrInvalidInput, "unknown graphics API %q", s).
		WithDetail("value", s)
}

// MarshalText implements encoding.TextMarshaler
func (a API) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *API) UnmarshalText(text []byte) error {
	api, err := ParseAPI(string(text))
	if err != nil {
		return err
	}
	*a = api
	return nil
}
