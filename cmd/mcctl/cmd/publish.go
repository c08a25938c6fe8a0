package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fatih/color"
	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/service"
	"github.com/maheshrc27/mission-control/internal/transfer"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	publishHere bool
)

var publishDueCmd = &cobra.Command{
	Use:   "publish-due",
	Short: "Publish every approved or scheduled post that is due",
	Long: "Calls the server's publish-due webhook. With --local the run happens in this\n" +
		"process against POSTGRES_URI instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var published int
		if publishHere {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			publisher := service.NewPublisherService(*cfg,
				repository.NewLinkedInPostRepository(db),
				repository.NewPublishAttemptRepository(db),
				repository.NewCredentialRepository(db),
				events.Discard, nil)
			if published, err = publisher.PublishDuePosts(cmd.Context()); err != nil {
				return err
			}
		} else {
			if serverURL == "" {
				serverURL = "http://localhost:" + cfg.Port
			}
			if published, err = triggerPublishDue(cmd, serverURL, cfg.Gateway.WebhookToken); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %d post(s)\n", color.GreenString("published"), published)
		return nil
	},
}

func triggerPublishDue(cmd *cobra.Command, base, token string) (int, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, base+"/hooks/linkedin/publish-due", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("server replied %d: %s", resp.StatusCode, body)
	}
	var result transfer.PublishDueResult
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("decode reply: %w", err)
	}
	return result.Published, nil
}

func init() {
	publishDueCmd.Flags().StringVar(&serverURL, "server", "", "server base URL (default http://localhost:$PORT)")
	publishDueCmd.Flags().BoolVar(&publishHere, "local", false, "run the publisher in this process")
}
