package forumctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sunrise/internal/adapters/uistate"
	"sunrise/internal/application/orchestrators"
	"sunrise/internal/domain/forum"
	"sunrise/internal/domain/notification"
)

// cliStateKey is the single ui state slot a forumctl process uses.
const cliStateKey = "forumctl"

func topicsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the configured topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tACCESS")
			for _, t := range o.cfg.Catalogue() {
				access := "all"
				if t.PaidOnly {
					access = "paid"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, access)
			}
			return tw.Flush()
		},
	}
}

// printMessages writes one line per message, oldest first as the backend returns them.
func printMessages(w io.Writer, msgs []forum.Message, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range msgs {
		fmt.Fprintln(tw, messageLine(m, now))
	}
	return tw.Flush()
}

func messageLine(m forum.Message, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d\t%s\t%s\t+%d/-%d\t", m.ID, m.Username, forum.FormatRelative(m.Timestamp.Time, now, forum.BackendLocation), m.Upvotes, m.Downvotes)
	if m.HasReply() {
		fmt.Fprintf(&b, "[re @%s: %s] ", m.ReplyToUsername, m.ReplyQuote())
	}
	b.WriteString(m.Message)
	if m.MediaURL != "" {
		fmt.Fprintf(&b, " <%s %s>", m.Media(), m.MediaURL)
	}
	return b.String()
}

func messagesCmd(o *options) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Print a topic's messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msgs, err := o.client().ListMessages(cmd.Context(), topic)
			if err != nil {
				return fmt.Errorf("list messages: %w", err)
			}
			if len(msgs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), forum.NoticeEmptyList)
				return nil
			}
			return printMessages(cmd.OutOrStdout(), msgs, time.Now())
		},
	}
	cmd.Flags().StringVar(&topic, "topic", forum.AllTopicID, "topic id, or all")
	return cmd
}

// readMedia loads a file for upload. The type comes from the extension, then from sniffing.
func readMedia(path string) (*forum.Media, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &forum.Media{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

func postCmd(o *options) *cobra.Command {
	var (
		topic, text, mediaPath string
		replyTo                int64
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Send a message to a topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			t := o.topic(topic)
			if !t.Postable() {
				return forum.ErrNoTopic
			}
			state := uistate.Bind(uistate.NewMemoryStore(), cliStateKey)
			actions := []forum.Action{forum.TopicSelected{Topic: t}}
			if replyTo > 0 {
				actions = append(actions, forum.ReplyStarted{Target: forum.ReplyTarget{MessageID: replyTo}})
			}
			if _, err := state.Apply(ctx, actions...); err != nil {
				return err
			}

			var media *forum.Media
			if mediaPath != "" {
				m, err := readMedia(mediaPath)
				if err != nil {
					return err
				}
				if _, err := orchestrators.ExecuteAttachMedia(ctx, *m, state); err != nil {
					return fmt.Errorf("%s: %w", mediaPath, err)
				}
				media = m
			}

			s, err := orchestrators.ExecuteSendMessage(ctx, orchestrators.SendMessageInput{Text: text, Media: media},
				orchestrators.SendMessageDeps{State: state, Backend: o.client()})
			if err != nil {
				if s.Notice != "" {
					return fmt.Errorf("%s: %w", s.Notice, err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent to %s (%d messages)\n", t.Name, len(s.Messages))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&topic, "topic", "", "topic id")
	f.StringVar(&text, "text", "", "message text")
	f.StringVar(&mediaPath, "media", "", "image or video file to attach")
	f.Int64Var(&replyTo, "reply-to", 0, "id of the message being answered")
	cmd.MarkFlagRequired("topic")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func voteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:       "vote ID up|down",
		Short:     "Vote on a message",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(forum.VoteUp), string(forum.VoteDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			vote := forum.VoteType(args[1])
			if !vote.Valid() {
				return forum.ErrInvalidVote
			}
			if err := o.client().Vote(cmd.Context(), id, vote); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "voted %s on #%d\n", vote, id)
			return nil
		},
	}
}

func deleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a message (the backend checks ownership)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := o.client().DeleteMessage(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted #%d\n", id)
			return nil
		},
	}
}

func mentionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mentions [QUERY]",
		Short: "Search users the way the @-mention list does",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = strings.TrimPrefix(args[0], "@")
			}
			found, err := o.client().SearchUsers(cmd.Context(), query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, forum.NoticeNoUsers)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, s := range found {
				fmt.Fprintf(tw, "@%s\t%s\t%s\n", s.Username, s.Label(), s.Contact())
			}
			return tw.Flush()
		},
	}
}

func watchCmd(o *options) *cobra.Command {
	var (
		topic    string
		interval time.Duration
		ticks    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a topic and print new, changed and removed messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			out := cmd.OutOrStdout()
			backend := o.client()
			state := uistate.Bind(uistate.NewMemoryStore(), cliStateKey)
			if _, err := state.Apply(ctx, forum.TopicSelected{Topic: o.topic(topic)}); err != nil {
				return err
			}
			refresh := orchestrators.RefreshMessagesDeps{State: state, Backend: backend}
			s, err := orchestrators.ExecuteRefreshMessages(ctx, refresh)
			if err != nil {
				return err
			}
			if err := printMessages(out, s.Messages, time.Now()); err != nil {
				return err
			}

			prev := s.Messages
			n := 0
			poller := &orchestrators.Poller{
				Interval: interval,
				Refresh:  refresh,
				OnTick: func(ctx context.Context, err error) {
					n++
					if err == nil {
						cur, getErr := state.Get(ctx)
						if getErr == nil {
							for _, c := range forum.DiffMessages(prev, cur.Messages) {
								fmt.Fprintf(out, "%s\t%s\n", c.Kind, messageLine(c.Message, time.Now()))
							}
							prev = cur.Messages
						}
					}
					if ticks > 0 && n >= ticks {
						cancel()
					}
				},
			}
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&topic, "topic", forum.AllTopicID, "topic id, or all")
	f.DurationVar(&interval, "interval", orchestrators.DefaultPollInterval, "poll interval")
	f.IntVar(&ticks, "ticks", 0, "stop after this many polls (0 runs until interrupted)")
	return cmd
}

func notificationsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := o.client().ListNotifications(cmd.Context())
			if err != nil {
				return err
			}
			return printNotifications(cmd.OutOrStdout(), list)
		},
	}
}

func printNotifications(w io.Writer, list []notification.Notification) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No new notifications")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.ID, n.ItemType, n.Sender(), humanize.Time(n.CreatedAt), n.Message)
	}
	return tw.Flush()
}

func seenCmd(o *options) *cobra.Command {
	var itemType string
	cmd := &cobra.Command{
		Use:   "seen ID",
		Short: "Mark a notification as seen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return notification.ErrInvalidID
			}
			list, err := orchestrators.ExecuteMarkNotificationSeen(cmd.Context(), orchestrators.MarkNotificationSeenInput{
				ID: id, ItemType: itemType,
			}, o.client())
			if err != nil {
				return err
			}
			return printNotifications(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&itemType, "type", "general", "notification type: general, personal, mention or personal_chat")
	return cmd
}
