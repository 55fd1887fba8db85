package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/sentichat/internal/config"
	"github.com/zhouzirui/sentichat/internal/logger"
	"github.com/zhouzirui/sentichat/internal/service/ai"
	"github.com/zhouzirui/sentichat/internal/service/chat"
	"github.com/zhouzirui/sentichat/internal/service/conversation"
	"github.com/zhouzirui/sentichat/internal/tui"
)

func main() {
	loadID := flag.String("load", "", "resume a saved session by id")
	personaID := flag.String("persona", "", "persona to chat with")
	logPath := flag.String("log", "", "write logs to this file (default: discard)")
	list := flag.Bool("list", false, "print saved session ids and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Output: logOut})

	repo, err := chat.OpenRepository(cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// --list: print saved sessions as plain text (for scripting)
	if *list {
		ids, err := repo.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	manager, err := conversation.NewManager(conversation.ManagerConfig{
		Generator:      generator,
		Repository:     repo,
		DefaultPersona: cfg.Chat.DefaultPersona,
		HistoryLimit:   cfg.Chat.HistoryLimit,
		Log:            log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	session, err := manager.NewSession(*personaID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := tui.NewModel(ctx, session)
	if *loadID != "" {
		if session.Load(ctx, *loadID) {
			m.SetNotice("Loaded session " + *loadID)
		} else {
			m.SetNotice("Could not load session " + *loadID + ", starting fresh")
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
