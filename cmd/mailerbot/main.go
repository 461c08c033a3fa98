// Command mailerbot runs the chat-bot mailer front-end: it polls the
// chat service for commands from whitelisted users and sends templated
// mail through their authenticated IMAP accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nhle/mailerbot/internal/bot"
	"github.com/nhle/mailerbot/internal/credential"
	"github.com/nhle/mailerbot/internal/mail"
	"github.com/nhle/mailerbot/internal/model"
	"github.com/nhle/mailerbot/internal/store"
	"github.com/nhle/mailerbot/internal/transport"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	setToken := flag.Bool("set-token", false, "store the bot token from stdin in the system keyring and exit")
	flag.Parse()

	if err := run(*configPath, *setToken); err != nil {
		fmt.Fprintln(os.Stderr, "mailerbot:", err)
		os.Exit(1)
	}
}

func run(configPath string, setToken bool) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if setToken {
		return storeToken()
	}

	token := cfg.Token
	if token == "" {
		token, err = credential.Get(credential.BotTokenKey)
		if err != nil {
			return fmt.Errorf("no token in config and none in keyring: %w", err)
		}
	}

	users, err := store.NewFileStore(cfg.UsersPath)
	if err != nil {
		return err
	}

	history, err := store.NewSQLiteHistory(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer history.Close()

	gateway := mail.NewGateway(mail.IMAPDialer{}, logger)
	tr := transport.NewTelegram(
		token,
		time.Duration(cfg.PollTimeoutSec)*time.Second,
		logger,
	)

	b := bot.New(users, history, gateway, tr, logger)

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	logger.Info("mailerbot started",
		"users_db", cfg.UsersPath,
		"history_db", cfg.HistoryPath,
	)

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("mailerbot stopped")
	return nil
}

// storeToken reads a token from stdin and saves it to the keyring.
func storeToken() error {
	var token string
	fmt.Fprint(os.Stderr, "bot token: ")
	if _, err := fmt.Fscanln(os.Stdin, &token); err != nil {
		return fmt.Errorf("reading token: %w", err)
	}

	if err := credential.Set(credential.BotTokenKey, token); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "token stored in keyring")
	return nil
}
