package reshader

import (
	"io"

	"github.com/arthur-debert/reshader/internal/version"
	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// GenCompletion writes the completion script of shell for root
func GenCompletion(root *cobra.Command, shell string, w io.Writer) error {
	var err error
	switch shell {
	case "bash":
		err = root.GenBashCompletionV2(w, true)
	case "zsh":
		err = root.GenZshCompletion(w)
	case "fish":
		err = root.GenFishCompletion(w, true)
	case "powershell":
		err = root.GenPowerShellCompletionWithDesc(w)
	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown shell %q", shell).
			WithDetail("supported", []string{"bash", "zsh", "fish", "powershell"})
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "failed to generate %s completion", shell)
	}
	return nil
}

// ManHeader is the header of every generated man page
func ManHeader() *doc.GenManHeader {
	return &doc.GenManHeader{
		Title:   "RESHADER",
		Section: "1",
		Source:  "reshader " + version.Version,
		Manual:  "reshader manual",
	}
}
