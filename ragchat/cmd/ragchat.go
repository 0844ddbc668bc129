// Command ragchat chats against a local text or CSV file from the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"ragchat/ragchat/bootstrap"
	"ragchat/ragchat/config"
	"ragchat/ragchat/controllers"
	"ragchat/ragchat/secrets"
	"ragchat/ragchat/utils/color"
	"ragchat/ragchat/utils/logging"
)

func main() {
	args := os.Args[1:]
	if len(args) != 2 || args[0] != "chat" {
		fmt.Println("ragchat CLI usage:")
		fmt.Println("  ragchat chat <file>   # Ask questions about a .txt or .csv file")
		os.Exit(1)
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.Disable()
	}
	if err := run(args[1]); err != nil {
		fmt.Fprintln(os.Stderr, color.Error(err.Error()))
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		return err
	}
	defer logging.Sync()

	// The CLI never serves HTTP or leaves the machine.
	cfg.StorageRemote = false
	cfg.SessionStore = config.SessionStoreMemory
	if cfg.UploadDir, err = os.MkdirTemp("", "ragchat-cli-"); err != nil {
		return err
	}
	defer os.RemoveAll(cfg.UploadDir)

	ctx := context.Background()
	if cfg, err = resolveModelSecrets(ctx, cfg); err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	chat := controllers.NewChatController(app.Sessions, app.Docs, app.Completer, cfg.LLMModel)
	docs := controllers.NewDocumentController(app.Sessions, app.Docs)

	sessionID := fmt.Sprintf("cli-%s", uuid.New().String()[:8])
	if err := loadDocument(ctx, docs, sessionID, path); err != nil {
		return err
	}
	logging.AppLogger.Info("ragchat CLI session started",
		zap.String("sessionID", sessionID),
		zap.String("file", path),
	)

	fmt.Println(color.Info(fmt.Sprintf("Loaded %s. Type your question or 'exit' to quit.", filepath.Base(path))))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.Prompt("ragchat> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye!")
			break
		}
		if line == "" {
			continue
		}

		res, err := chat.HandleTurn(ctx, sessionID, line)
		if err != nil {
			fmt.Println(color.Error(err.Error()))
			continue
		}
		fmt.Println(color.Reply(res.Reply))
		fmt.Println(color.Sources(strings.TrimPrefix(strings.TrimPrefix(res.Response, res.Reply), "\n\n")))
		fmt.Println()
	}
	return scanner.Err()
}

func loadDocument(ctx context.Context, docs *controllers.DocumentController, sessionID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	_, err = docs.Upload(ctx, sessionID, controllers.Upload{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Body:     f,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// resolveModelSecrets fetches only what talking to the model needs; the CLI
// issues no session cookies.
func resolveModelSecrets(ctx context.Context, cfg config.Config) (config.Config, error) {
	var names []string
	for _, n := range cfg.RequiredSecrets() {
		if n != "SESSION_SECRET_KEY" {
			names = append(names, n)
		}
	}
	values, err := secrets.Require(ctx, bootstrap.SecretSource(cfg), names...)
	if err != nil {
		return cfg, err
	}
	return cfg.WithSecrets(values), nil
}
