package reshader

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	MsgRootShort       = "Install ReShade into Wine and Proton games"
	MsgInstallShort    = "Install or update ReShade in a game directory"
	MsgUninstallShort  = "Remove ReShade from a game directory"
	MsgStatusShort     = "Show what reshader installed in a game"
	MsgListShort       = "List games with ReShade installed"
	MsgListLong        = "List shows every game directory reshader has an installation record for."
	MsgDetectShort     = "Detect the graphics API of a game"
	MsgCatalogShort    = "List the known shader collections"
	MsgGuideShort      = "Read the reshader guide"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man pages"

	// Status messages
	MsgConfirmDowngrade = "%s has ReShade %s, newer than %s. Downgrade?"
	MsgAborted          = "Nothing changed."
	MsgManWritten       = "Wrote man pages to %s"

	// Flag descriptions
	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig       = "Config file (default $XDG_CONFIG_HOME/reshader/config.toml)"
	MsgFlagFormat       = "Output format: auto, term, text or json"
	MsgFlagNoColor      = "Disable colors"
	MsgFlagInstaller    = "Use an already downloaded ReShade setup file"
	MsgFlagVersion      = "ReShade version to install (default: latest release)"
	MsgFlagFlavor       = "Installer flavour: addon or vanilla"
	MsgFlagAPI          = "Graphics API, skipping detection (d3d9, d3d11, d3d12, opengl, vulkan)"
	MsgFlagArch         = "Game architecture, skipping detection (x64 or x86)"
	MsgFlagShaders      = "Extra shader source: a directory, a zip file or a git URL (repeatable)"
	MsgFlagCollection   = "Shader collection from the catalog (repeatable)"
	MsgFlagNoDefaults   = "Do not add the catalog's enabled collections"
	MsgFlagSnapshot     = "Download collection snapshots instead of cloning them"
	MsgFlagNoCompiler   = "Do not install d3dcompiler_47.dll"
	MsgFlagShaderDir    = "Shader directory inside the game"
	MsgFlagNoIni        = "Do not create a default ReShade.ini"
	MsgFlagYes          = "Allow installing an older version without asking"
	MsgFlagCheckUpdates = "Look up the latest ReShade release"
	MsgFlagManDir       = "Directory the man pages are written to"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimRight(msgInstallExampleRaw, "\n")

	//go:embed msgs/uninstall-long.txt
	msgUninstallLongRaw string
	MsgUninstallLong    = strings.TrimSpace(msgUninstallLongRaw)

	//go:embed msgs/status-long.txt
	msgStatusLongRaw string
	MsgStatusLong    = strings.TrimSpace(msgStatusLongRaw)

	//go:embed msgs/detect-long.txt
	msgDetectLongRaw string
	MsgDetectLong    = strings.TrimSpace(msgDetectLongRaw)

	//go:embed msgs/catalog-long.txt
	msgCatalogLongRaw string
	MsgCatalogLong    = strings.TrimSpace(msgCatalogLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	MsgUsageTemplate string
)
