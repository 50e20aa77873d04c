package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/NarekNk/todo-task/internal/api"
	"github.com/NarekNk/todo-task/internal/tui"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("TODO_ADDR", "http://localhost:8080"), "server base URL")
	token := flag.String("token", os.Getenv("TODO_TOKEN"), "session token (or TODO_TOKEN)")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "no session token: pass -token or set TODO_TOKEN")
		os.Exit(2)
	}

	client := api.New(*addr, *token)
	p := tea.NewProgram(tui.NewModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
