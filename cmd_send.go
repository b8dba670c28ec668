package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dingtalk/bot"
)

func newSendCmd(a *app) *cobra.Command {
	send := &cobra.Command{
		Use:   "send",
		Short: "Send a message",
	}
	send.AddCommand(
		newSendTextCmd(a),
		newSendMarkdownCmd(a),
		newSendLinkCmd(a),
		newSendFeedCardCmd(a),
		newSendActionCardCmd(a),
	)
	return send
}

func mentionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("at-all", false, "mention everyone")
	cmd.Flags().StringSlice("at-mobile", nil, "mention the member with this phone number (repeatable)")
}

func newSendTextCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text <content>",
		Short: "Send a text message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := bot.NewText(args[0])
			if all, _ := cmd.Flags().GetBool("at-all"); all {
				m.AtAll()
			}
			mobiles, _ := cmd.Flags().GetStringSlice("at-mobile")
			m.AtMobiles(mobiles...)
			return a.broadcast(cmd, m)
		},
	}
	mentionFlags(cmd)
	return cmd
}

func newSendMarkdownCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markdown <title> <content>",
		Short: "Send a markdown message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := bot.NewMarkdown(args[0], args[1])
			if all, _ := cmd.Flags().GetBool("at-all"); all {
				m.AtAll()
			}
			mobiles, _ := cmd.Flags().GetStringSlice("at-mobile")
			m.AtMobiles(mobiles...)
			return a.broadcast(cmd, m)
		},
	}
	mentionFlags(cmd)
	return cmd
}

func newSendLinkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <title> <text> <message-url>",
		Short: "Send a link message",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pic, _ := cmd.Flags().GetString("pic-url")
			return a.broadcast(cmd, bot.NewLink(args[0], args[1], pic, args[2]))
		},
	}
	cmd.Flags().String("pic-url", "", "picture `url`")
	return cmd
}

func newSendFeedCardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedcard --link 'title|message-url|pic-url' ...",
		Short: "Send a feed card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			links, _ := cmd.Flags().GetStringArray("link")
			m := bot.NewFeedCard()
			for _, l := range links {
				parts, err := splitFields(l, 2, 3)
				if err != nil {
					return fmt.Errorf("--link %q: %w", l, err)
				}
				m.AddLinkDetail(parts[0], parts[1], parts[2])
			}
			return a.broadcast(cmd, m)
		},
	}
	cmd.Flags().StringArray("link", nil, "feed card entry as title|message-url|pic-url (repeatable)")
	return cmd
}

func newSendActionCardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actioncard <title> <text> --button 'title|url' ...",
		Short: "Send an action card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			buttons, _ := cmd.Flags().GetStringArray("button")
			single, _ := cmd.Flags().GetBool("single")
			vertical, _ := cmd.Flags().GetBool("vertical")
			hide, _ := cmd.Flags().GetBool("hide-avatar")
			if single && len(buttons) != 1 {
				return fmt.Errorf("--single needs exactly one --button, got %d", len(buttons))
			}

			m := bot.NewActionCard(args[0], args[1])
			for _, b := range buttons {
				parts, err := splitFields(b, 2, 2)
				if err != nil {
					return fmt.Errorf("--button %q: %w", b, err)
				}
				btn := bot.Button{Title: parts[0], ActionURL: parts[1]}
				if single {
					m.SetSingleButton(btn)
				} else {
					m.AddButton(btn)
				}
			}
			if vertical {
				m.Vertical()
			}
			if hide {
				m.HideAvatar()
			}
			return a.broadcast(cmd, m)
		},
	}
	cmd.Flags().StringArray("button", nil, "button as title|url (repeatable)")
	cmd.Flags().Bool("single", false, "render the only button as a single-button card")
	cmd.Flags().Bool("vertical", false, "stack the buttons vertically")
	cmd.Flags().Bool("hide-avatar", false, "hide the robot avatar")
	return cmd
}

// splitFields splits s on "|" into maxFields fields, padding missing trailing
// fields with "" as long as at least minFields are present.
func splitFields(s string, minFields, maxFields int) ([]string, error) {
	parts := strings.SplitN(s, "|", maxFields)
	if len(parts) < minFields {
		return nil, fmt.Errorf("want at least %d |-separated fields", minFields)
	}
	for len(parts) < maxFields {
		parts = append(parts, "")
	}
	return parts, nil
}
