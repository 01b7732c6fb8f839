// Command manage is the operator CLI: one-time import of admin and
// whitelist IDs from flat files, and admin grant/revoke by handle.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"roombot/internal/config"
	"roombot/internal/database"
)

const usage = `usage:
  manage load-admins FILE     grant admin to every ID in FILE
  manage load-whitelist FILE  whitelist every ID in FILE
  manage op USERNAME          grant admin by handle
  manage deop USERNAME        revoke admin by handle

ID files contain one numeric Telegram ID per line; lines starting
with # are ignored.`

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	args := os.Args[1:]
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("ROOMBOT_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx := context.Background()
	switch args[0] {
	case "load-admins":
		ids, err := readIDFile(args[1])
		if err != nil {
			logger.Fatal().Err(err).Msg("read id file")
		}
		if err := db.GrantAdmins(ctx, ids); err != nil {
			logger.Fatal().Err(err).Msg("grant admins")
		}
		logger.Info().Int("count", len(ids)).Msg("admins imported")

	case "load-whitelist":
		ids, err := readIDFile(args[1])
		if err != nil {
			logger.Fatal().Err(err).Msg("read id file")
		}
		if err := db.GrantWhitelist(ctx, ids); err != nil {
			logger.Fatal().Err(err).Msg("grant whitelist")
		}
		logger.Info().Int("count", len(ids)).Msg("whitelist imported")

	case "op", "deop":
		username := strings.TrimPrefix(args[1], "@")
		user, err := db.GetUserByUsername(ctx, username)
		if err != nil {
			logger.Fatal().Err(err).Msg("look up user")
		}
		if user == nil {
			logger.Fatal().Str("username", username).Msg("user has never messaged the bot")
		}
		if err := db.SetAdmin(ctx, user.UserID, args[0] == "op"); err != nil {
			logger.Fatal().Err(err).Msg("set admin flag")
		}
		logger.Info().Str("username", username).Bool("admin", args[0] == "op").Msg("admin flag updated")

	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func readIDFile(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id line %q: %w", line, err)
		}
		ids = append(ids, id)
	}
	return ids, scanner.Err()
}
