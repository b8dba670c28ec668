// Command dingtalk sends messages to DingTalk and WeCom robots.
//
//	dingtalk send text "deploy finished" --at-all
//	dingtalk send markdown "Release" "# v1.2.0 is out" --token dingtalk:<token>?<secret>
//	dingtalk sign --secret <secret>
//
// Robots are read from --config files (default ~/.dingtalk-token.json) or
// given as --token strings. A message is sent to every robot at once.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultConfigFile = "~/.dingtalk-token.json"

type app struct {
	v      *viper.Viper
	logger *zap.Logger
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dingtalk:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "dingtalk",
		Short:         "Send messages to DingTalk and WeCom robots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			logger, err := newLogger(a.v.GetBool("verbose"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.logger.Sync()
		},
	}

	f := root.PersistentFlags()
	f.StringSlice("config", []string{defaultConfigFile}, "robot configuration `file` (repeatable)")
	f.StringSlice("token", nil, "robot token dingtalk:<token>[?<secret>], wechatwork:<key> or wecom:<key> (repeatable)")
	f.Duration("timeout", 10*time.Second, "HTTP request timeout")
	f.Bool("verbose", false, "log debug output")
	f.String("dedup-key", "", "suppress the message if this key was sent within --dedup-ttl")
	f.Duration("dedup-ttl", time.Hour, "how long --dedup-key suppresses repeats")
	f.String("cache-file", "", "de-duplication cache `file` (default ~/.dingtalk-cache.json)")
	f.String("redis", "", "Redis `address` for the de-duplication cache instead of a file")
	f.String("redis-prefix", "dingtalk:", "key prefix in Redis")

	a.v.SetEnvPrefix("dingtalk")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(f); err != nil {
		panic(err)
	}

	root.AddCommand(newSendCmd(a), newSignCmd(a))
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
