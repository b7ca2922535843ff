package cli

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/campaignlab/fieldnotes/internal/config"
	"github.com/campaignlab/fieldnotes/internal/matrix"
)

// exportCommand is the room message that triggers an export in daemon
// mode.
const exportCommand = "!export"

// syncTimeoutMS is the /sync long-poll timeout.
const syncTimeoutMS = 30000

func runDaemon(args []string) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	common := addCommonFlags(fs, cfg)
	roomFlag := fs.String("room", cfg.Room, "Room id or alias (or MATRIX_ROOM_ID)")

	usage := usageWithFlags(fs, "fieldnotes run [options]",
		"Stays online and updates the export whenever someone posts",
		"\"!export\" in the room. Stop with SIGINT or SIGTERM.")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, cleanup, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	self := session.UserID()
	if self == "" {
		if self, err = session.WhoAmI(ctx); err != nil {
			return err
		}
	}

	roomID, err := session.ResolveAlias(ctx, cfg.Room)
	if err != nil {
		return err
	}

	logger.Info("daemon running", "room_id", roomID, "command", exportCommand)
	return syncLoop(ctx, session, roomID, self, common.Out, logger)
}

// syncLoop long-polls /sync and reacts to the export command. The
// initial sync only establishes the batch token; its backlog is
// ignored so a restart doesn't replay old commands.
func syncLoop(ctx context.Context, session *matrix.Session, roomID, self, outPath string, logger *slog.Logger) error {
	initial, err := session.Sync(ctx, matrix.SyncOptions{})
	if err != nil {
		return err
	}
	since := initial.NextBatch

	for {
		response, err := session.Sync(ctx, matrix.SyncOptions{Since: since, Timeout: syncTimeoutMS})
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("daemon stopping")
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			return err
		}
		since = response.NextBatch

		for _, msg := range response.Rooms.Join[roomID].Timeline.Events {
			if !msg.IsRoomMessage() || msg.Sender == self {
				continue
			}
			if strings.ToLower(strings.TrimSpace(msg.Body())) != exportCommand {
				continue
			}
			logger.Info("export requested", "sender", msg.Sender)
			if _, err := exportOnce(ctx, session, roomID, outPath, logger); err != nil {
				logger.Error("export failed", "error", err)
				continue
			}
			if _, err := session.SendText(ctx, roomID, "Export complete. Check the repo."); err != nil {
				logger.Warn("confirmation not sent", "error", err)
			}
		}
	}
}
