package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/pkg/chat"
	"glassfactory-chat/pkg/chat/storage"
	"glassfactory-chat/pkg/typing"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Store       storage.Store
	API         chat.ChatAPI
	Logger      logger.ILogger
	Profile     chat.Profile
	PrefersDark bool
}

// Run builds the chat manager, restores the last session and blocks until the
// user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	var program *tea.Program

	animator := typing.NewAnimator(typing.DefaultInterval, func(f typing.Frame) {
		if program != nil {
			program.Send(frameMsg{frame: f})
		}
	})
	defer animator.Stop()

	mgr := chat.NewManager(chat.Options{
		Store:       opts.Store,
		API:         opts.API,
		Logger:      opts.Logger,
		Animator:    animator,
		Profile:     opts.Profile,
		PrefersDark: opts.PrefersDark,
		OnChange: func() {
			// Called from inside Update as well; Send blocks until the loop reads it.
			if program != nil {
				go program.Send(stateChangedMsg{})
			}
		},
	})
	mgr.Init(ctx)

	program = tea.NewProgram(
		newModel(ctx, mgr, opts.Logger),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	opts.Logger.Info(logModule, "Client started", map[string]interface{}{
		"session_id": mgr.SessionID(),
		"history":    len(mgr.History()),
	})

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
