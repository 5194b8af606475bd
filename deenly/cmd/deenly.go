// Command-line interface for Deenly
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"deenly/deenly/config"
	"deenly/deenly/services/chat"
	"deenly/deenly/services/hadith"
	"deenly/deenly/services/llm"
	"deenly/deenly/utils/color"
	"deenly/deenly/utils/logging"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	args := os.Args[1:]
	switch {
	case len(args) >= 1 && args[0] == "chat":
		os.Exit(runChat(cfg))
	case len(args) >= 2 && args[0] == "import-hadith":
		id := ""
		if len(args) >= 3 {
			id = args[2]
		}
		os.Exit(importHadith(args[1], id))
	default:
		fmt.Println("Deenly CLI usage:")
		fmt.Println("  deenly chat                              # Chat as a guest in this terminal")
		fmt.Println("  deenly import-hadith <file.html> [id]    # Convert a collection page to YAML")
		os.Exit(1)
	}
}

func runChat(cfg config.Config) int {
	responder, err := llm.NewFromConfig(&cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		return 1
	}
	// guest sessions never touch the stores
	manager := chat.NewManager(chat.Deps{Responder: responder})
	session, err := manager.Session(context.Background(), chat.GuestID)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		return 1
	}
	logging.AppLogger.Info("Deenly CLI chat started", zap.String("backend", cfg.LLMBackend), zap.String("model", cfg.LLMModel))

	fmt.Println(color.ColorInfo("\nAs-salamu alaykum. Deenly está listo."))
	fmt.Println("Commands: /threads [query], /open <n>, /star <n>, /delete <n>, /memory <text>, /clear, exit")
	fmt.Println()

	newREPL(session, os.Stdin, os.Stdout).Run(context.Background())
	return 0
}

func importHadith(path, id string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		return 1
	}
	defer f.Close()

	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	col, err := hadith.ImportHTML(f, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		return 1
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode([]hadith.Collection{col}); err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		return 1
	}
	return 0
}
