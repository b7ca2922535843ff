package cli

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/campaignlab/fieldnotes/internal/config"
	"github.com/campaignlab/fieldnotes/internal/export"
	"github.com/campaignlab/fieldnotes/internal/matrix"
)

// exportSummary is printed after a successful export.
type exportSummary struct {
	Out             string `json:"out"`
	Fetched         int    `json:"fetched"`
	Messages        int    `json:"messages"`
	NewMessages     int    `json:"new_messages"`
	ProcessedIDs    int    `json:"processed_ids"`
	LastProcessedTS int64  `json:"last_processed_ts"`
}

func runExport(args []string) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := addCommonFlags(fs, cfg)
	roomFlag := fs.String("room", cfg.Room, "Room id or alias (or MATRIX_ROOM_ID)")
	timeoutFlag := fs.Duration("timeout", 5*time.Minute, "Overall deadline for the fetch (0 = none)")

	usage := usageWithFlags(fs, "fieldnotes export [options]")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}

	cfg.Room = *roomFlag
	if err := cfg.ValidateForNetwork(); err != nil {
		return UsageError("%v", err)
	}

	logger := newLogger(common.Verbose)

	ctx := context.Background()
	if *timeoutFlag > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeoutFlag)
		defer cancel()
	}

	session, cleanup, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	roomID, err := session.ResolveAlias(ctx, cfg.Room)
	if err != nil {
		return err
	}

	summary, err := exportOnce(ctx, session, roomID, common.Out, logger)
	if err != nil {
		return err
	}

	if common.JSON {
		return writeJSON(os.Stdout, summary)
	}
	if err := writeStdout("Exported to %s\n", summary.Out); err != nil {
		return err
	}
	if err := writeStdout("  fetched %d events, %d new message(s)\n", summary.Fetched, summary.NewMessages); err != nil {
		return err
	}
	return writeStdout("  total %d messages, %d processed ids, last ts %d\n",
		summary.Messages, summary.ProcessedIDs, summary.LastProcessedTS)
}

// openSession builds an authenticated session: access token when set,
// password login otherwise. The cleanup logs out password sessions so
// one-shot runs don't accumulate devices.
func openSession(ctx context.Context, cfg config.Config, logger *slog.Logger) (*matrix.Session, func(), error) {
	client, err := matrix.NewClient(matrix.ClientConfig{
		HomeserverURL: cfg.Homeserver,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.AccessToken != "" {
		userID := cfg.UserID
		if userID == "" {
			userID = cfg.User
		}
		return client.SessionFromToken(userID, cfg.AccessToken), func() {}, nil
	}

	session, err := client.Login(ctx, cfg.User, cfg.Password)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		logoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := session.Logout(logoutCtx); err != nil {
			logger.Warn("logout failed", "error", err)
		}
	}
	return session, cleanup, nil
}

// exportOnce fetches the room's full history and merges it into the
// export document under the output lock.
func exportOnce(ctx context.Context, session *matrix.Session, roomID, outPath string, logger *slog.Logger) (exportSummary, error) {
	batch, err := matrix.FetchRoomHistory(ctx, session, roomID)
	if err != nil {
		return exportSummary{}, err
	}

	var summary exportSummary
	err = withOutputLock(outPath, func() error {
		prior := loadPriorState(outPath)
		state := export.Merge(batch, prior)
		if err := export.SaveState(outPath, state); err != nil {
			return err
		}
		summary = summarize(outPath, len(batch), prior, state)
		return nil
	})
	if err != nil {
		return exportSummary{}, err
	}

	logger.Info("export updated",
		"out", filepath.Clean(outPath),
		"messages", summary.Messages,
		"new", summary.NewMessages,
	)
	return summary, nil
}

func summarize(outPath string, fetched int, prior, state *export.State) exportSummary {
	priorCount := 0
	if prior != nil {
		priorCount = len(prior.Messages)
	}
	return exportSummary{
		Out:             outPath,
		Fetched:         fetched,
		Messages:        len(state.Messages),
		NewMessages:     len(state.Messages) - priorCount,
		ProcessedIDs:    len(state.ProcessedIDs),
		LastProcessedTS: state.LastProcessedTS,
	}
}
