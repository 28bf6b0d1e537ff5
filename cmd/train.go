package cmd

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train on the reference images and report the faces found per student, without serving",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend()
		if err != nil {
			return err
		}
		defer b.close()

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Training"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
		model, err := trainModel(b, func(identity, name string, found int) {
			_ = bar.Add(1)
		})
		_ = bar.Finish()
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
}
