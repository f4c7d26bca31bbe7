package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"recpanel/apperror"
	"recpanel/client"
	"recpanel/config"
	"recpanel/models"
)

var splitDuration int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the recorder's recording state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newClient().Status(cmd.Context())
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), s, nowFunc())
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a recording",
	RunE: func(cmd *cobra.Command, _ []string) error {
		split := splitDuration
		if split <= 0 {
			split = config.GetConfig().SplitDuration
		}
		res, err := newClient().Start(cmd.Context(), split)
		return reportCommand(cmd.OutOrStdout(), "Recording started", "Failed to start recording", res, err)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the current recording",
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := newClient().Stop(cmd.Context())
		return reportCommand(cmd.OutOrStdout(), "Recording stopped", "Failed to stop recording", res, err)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recordings and their download URLs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := newClient()
		names, err := c.List(cmd.Context())
		if err != nil {
			return err
		}
		printList(cmd.OutOrStdout(), names, c.DownloadURL)
		return nil
	},
}

func init() {
	startCmd.Flags().IntVar(&splitDuration, "split", 0, "split duration passed to the recorder (default SPLIT_DURATION)")
}

func newClient() *client.Client {
	conf := config.GetConfig()
	return client.New(conf.RecorderURL, client.Options{Timeout: conf.RequestTimeout})
}

func reportCommand(out io.Writer, okMsg, fallback string, res models.CommandResult, err error) error {
	if err == nil && !res.Success {
		err = apperror.Rejected.SetMessage(res.Message)
	}
	if err != nil {
		return errors.New(apperror.UserMessage(err, fallback))
	}
	fmt.Fprintln(out, okMsg)
	return nil
}
