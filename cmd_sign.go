package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"dingtalk/bot"
)

func newSignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the timestamp and sign query parameters for a secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := a.v.GetString("secret")
			if secret == "" {
				return errors.New("need --secret or DINGTALK_SECRET")
			}
			ts, _ := cmd.Flags().GetInt64("timestamp")
			if ts == 0 {
				ts = bot.Timestamp(time.Now())
			}
			sig := bot.Sign(secret, ts)
			a.printf("timestamp=%d&sign=%s\n", sig.Timestamp, sig.Sign)
			return nil
		},
	}
	cmd.Flags().String("secret", "", "robot signing secret")
	cmd.Flags().Int64("timestamp", 0, "timestamp in milliseconds (default now)")
	if err := a.v.BindPFlag("secret", cmd.Flags().Lookup("secret")); err != nil {
		panic(err)
	}
	return cmd
}
