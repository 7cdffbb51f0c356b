// Package forumctl is a command-line client for the forum backend.
// It shares the web front end's backend client, reducer and orchestrators.
package forumctl

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"sunrise/internal/adapters/forumapi"
	"sunrise/internal/config"
	"sunrise/internal/domain/forum"
)

// options are the persistent flags every subcommand reads.
type options struct {
	configPath string
	backendURL string
	cookie     string
	logLevel   string

	cfg config.Config
}

// client returns a backend client carrying the session cookie.
func (o *options) client() *forumapi.Client {
	url := o.backendURL
	if url == "" {
		url = o.cfg.Backend.URL
	}
	return forumapi.NewClient(url, forumapi.WithHTTPClient(&http.Client{Timeout: o.cfg.Backend.Timeout})).As(o.cookie)
}

// topic resolves id against the configured catalogue. Unknown ids are passed through;
// the backend decides whether the viewer may use them.
func (o *options) topic(id string) forum.Topic {
	if t, ok := o.cfg.Catalogue().Find(id); ok {
		return t
	}
	return forum.Topic{ID: id, Name: id}
}

// New returns the forumctl root command.
func New() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Read and post to the coaching centre forum from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			if o.logLevel == "" {
				o.logLevel = cfg.LogLevel
			}
			// stdout is reserved for command output.
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: config.ParseLevel(o.logLevel)})))
			forum.BackendLocation = cfg.Location()
			if o.cookie == "" {
				o.cookie = os.Getenv("SUNRISE_BACKEND_COOKIE")
			}
			o.cfg = cfg
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "config file (default $SUNRISE_CONFIG or sunrise.yaml)")
	flags.StringVar(&o.backendURL, "backend", "", "backend base URL (overrides the config file)")
	flags.StringVar(&o.cookie, "cookie", "", "backend session cookie, e.g. session=... (default $SUNRISE_BACKEND_COOKIE)")
	flags.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		topicsCmd(o),
		messagesCmd(o),
		postCmd(o),
		voteCmd(o),
		deleteCmd(o),
		mentionsCmd(o),
		watchCmd(o),
		notificationsCmd(o),
		seenCmd(o),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
