// cmd/replay.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orthopteroid/hydrodp/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Replay a textual command script against the solver",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			logrus.WithError(err).Fatal("opening replay script")
		}
		defer f.Close()

		ip := replay.New(os.Stdout)
		if err := ip.Run(f); err != nil {
			logrus.WithError(err).Fatal("replay failed")
		}
	},
}
