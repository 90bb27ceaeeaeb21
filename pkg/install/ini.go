package install

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// ConfigFileName is the ReShade configuration file in the game directory
const ConfigFileName = "ReShade.ini"

//go:embed embedded/ReShade.ini.tmpl
var defaultIniTemplate string

var iniTemplate = template.Must(template.New("ini").Parse(defaultIniTemplate))

// DefaultIni renders the ReShade.ini written into games that have none,
// with search paths pointing into shaderDir.
func DefaultIni(shaderDir string) ([]byte, error) {
	var buf bytes.Buffer
	data := struct{ ShaderDir string }{ShaderDir: strings.ReplaceAll(shaderDir, "/", `\`)}
	if err := iniTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	// ReShade is a Windows program and reads CRLF files
	return bytes.ReplaceAll(buf.Bytes(), []byte("\n"), []byte("\r\n")), nil
}
