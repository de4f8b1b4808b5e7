package main

import (
	"github.com/spf13/cobra"

	"github.com/postboy/postboy/pkg/compose"
)

var (
	sendReq  requestFlags
	sendView viewFlags
)

func init() {
	sendReq.bind(sendCmd)
	sendView.bind(sendCmd)
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send [METHOD] URL",
	Short: "Send a request and show the response",
	Example: `  postboy send https://api.example.com/users -q page=2
  postboy send POST {{BASE_URL}}/users --raw '{"name":"ada"}' -e dev
  postboy send PUT https://api.example.com/avatar --binary @me.png -i`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, err := newExecutor()
		if err != nil {
			return err
		}

		c := compose.NewComposer()
		method, url := methodAndURL(args)
		if err := sendReq.apply(cmd.Context(), c, method, url); err != nil {
			return err
		}
		return sendAndShow(cmd.Context(), cmd.OutOrStdout(), c, exec, sendView)
	},
}
