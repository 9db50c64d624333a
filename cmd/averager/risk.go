package main

import (
	"fmt"
	"html"
	"regexp"

	"EquiSmart/internal/notifier"

	"github.com/spf13/cobra"
)

var htmlTag = regexp.MustCompile(`</?b>`)

func newRiskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "risk TICKER",
		Short: "Check fundamentals and volatility before averaging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.newCollector(nil)
			if err != nil {
				return err
			}
			ra := col.Assess(cmd.Context(), args[0])
			fmt.Fprint(cmd.OutOrStdout(), plain(notifier.FormatRiskReport(args[0], ra)))
			return nil
		},
	}
}

// plain strips the Telegram markup from a formatted message.
func plain(msg string) string {
	return html.UnescapeString(htmlTag.ReplaceAllString(msg, ""))
}
