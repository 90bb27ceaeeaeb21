package reshader

import (
	"embed"
	"io/fs"

	"github.com/arthur-debert/reshader/pkg/cobrax/topics"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/spf13/cobra"
)

//go:embed topics/*.md
var topicFiles embed.FS

// guideTopic is the topic the guide command shows without arguments
const guideTopic = "guide"

func initTopics(rootCmd *cobra.Command) *topics.TopicManager {
	sub, err := fs.Sub(topicFiles, "topics")
	if err != nil {
		logger := logging.GetLogger("cmd")
		logger.Warn().Err(err).Msg("Help topics unavailable")
		return topics.New(embed.FS{}, topics.Options{})
	}
	tm, err := topics.Initialize(rootCmd, sub, topics.Options{Renderer: topics.NewGlamourRenderer()})
	if err != nil {
		logger := logging.GetLogger("cmd")
		logger.Warn().Err(err).Msg("Help topics unavailable")
		return topics.New(embed.FS{}, topics.Options{})
	}
	return tm
}
