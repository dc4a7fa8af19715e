// Package bot implements the Telegram command dispatcher: it maps inbound
// commands to task operations and formats the replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskbot/internal/domain"
	"taskbot/internal/logger"
	"taskbot/internal/metrics"
	"taskbot/internal/repository"
	"taskbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const commandTimeout = 30 * time.Second

// TaskService is the slice of the task service the dispatcher needs.
type TaskService interface {
	Create(ctx context.Context, userID int64, description, category, deadline string) (*domain.Task, error)
	ListOpen(ctx context.Context, userID int64) ([]*domain.Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
	Complete(ctx context.Context, userID, taskID int64) error
}

// Limiter gates command handling per user. Satisfied by ratelimit.Limiter.
type Limiter interface {
	Allow(ctx context.Context, userID int64) bool
}

// Bot handles user commands via Telegram long polling.
type Bot struct {
	api     *tgbotapi.BotAPI
	tasks   TaskService
	limiter Limiter
	stopCh  chan struct{}
	wg      sync.WaitGroup
	log     *slog.Logger
}

// New creates the bot and authorizes against the Telegram API.
func New(token string, tasks TaskService, limiter Limiter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}

	log := logger.With("component", "bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:     api,
		tasks:   tasks,
		limiter: limiter,
		stopCh:  make(chan struct{}),
		log:     log,
	}, nil
}

// Start starts listening for commands. Blocks until Stop is called or the
// update channel closes, so run it on its own goroutine.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot.
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	// Wait for pending handlers with timeout
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

// handleCommand dispatches a single command and sends the reply.
// The acting user is always msg.From.ID, taken from the transport and never
// from the message text.
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	reply := tgbotapi.NewMessage(msg.Chat.ID, b.dispatch(ctx, msg))
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("error sending reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) string {
	userID := msg.From.ID

	if !b.limiter.Allow(ctx, userID) {
		return "Too many commands. Please slow down."
	}

	cmd := msg.Command()
	var response string

	switch cmd {
	case "start":
		response = "Welcome to your personal To-Do List Bot!"

	case "help":
		response = b.helpMessage()

	case "add":
		response = b.handleAdd(ctx, userID, msg.CommandArguments())

	case "list":
		response = b.handleList(ctx, userID)

	case "delete":
		response = b.handleDelete(ctx, userID, msg.CommandArguments())

	case "complete":
		response = b.handleComplete(ctx, userID, msg.CommandArguments())

	default:
		cmd = "unknown"
		response = "Unknown command. Use /help to see available commands."
	}

	metrics.CommandsTotal.WithLabelValues(cmd).Inc()
	return response
}

func (b *Bot) helpMessage() string {
	return `Available commands:
/add <description>; <category>; <deadline: YYYY-MM-DD HH:MM> - add a task (category and deadline are optional)
/list - show your open tasks
/complete <task_id> - mark a task as completed
/delete <task_id> - delete a task
/help - show this message`
}

// handleAdd parses "/add <description>; <category>; <deadline>". Category and
// deadline are optional; trimming and validation live in the service.
func (b *Bot) handleAdd(ctx context.Context, userID int64, args string) string {
	parts := strings.Split(args, ";")

	description := parts[0]
	category := ""
	deadline := ""
	if len(parts) > 1 {
		category = parts[1]
	}
	if len(parts) > 2 {
		deadline = parts[2]
	}

	_, err := b.tasks.Create(ctx, userID, description, category, deadline)
	switch {
	case err == nil:
		return "Task added successfully!"
	case errors.Is(err, service.ErrEmptyDescription):
		return "Usage: /add <description>; <category>; <deadline: YYYY-MM-DD HH:MM>"
	case errors.Is(err, service.ErrInvalidDeadline):
		return "Invalid date format. Use YYYY-MM-DD HH:MM."
	default:
		b.log.Error("add task failed", "user_id", userID, "error", err)
		metrics.CommandErrors.WithLabelValues("add").Inc()
		return "Failed to add task due to a database error."
	}
}

func (b *Bot) handleList(ctx context.Context, userID int64) string {
	tasks, err := b.tasks.ListOpen(ctx, userID)
	if err != nil {
		b.log.Error("list tasks failed", "user_id", userID, "error", err)
		metrics.CommandErrors.WithLabelValues("list").Inc()
		return "Failed to list tasks due to a database error."
	}

	if len(tasks) == 0 {
		return "No tasks found."
	}

	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, formatTask(t))
	}
	return strings.Join(lines, "\n")
}

func formatTask(t *domain.Task) string {
	if t.Deadline == nil {
		return fmt.Sprintf("%s - %s - no deadline", t.Description, t.Category)
	}
	return fmt.Sprintf("%s - %s - due by %s", t.Description, t.Category, *t.Deadline)
}

func (b *Bot) handleDelete(ctx context.Context, userID int64, args string) string {
	taskID, ok := parseTaskID(args)
	if !ok {
		return "Usage: /delete <task_id>"
	}

	err := b.tasks.Delete(ctx, userID, taskID)
	switch {
	case err == nil:
		return "Task deleted successfully!"
	case errors.Is(err, repository.ErrTaskNotFound):
		return "Task not found or does not belong to you."
	default:
		b.log.Error("delete task failed", "user_id", userID, "task_id", taskID, "error", err)
		metrics.CommandErrors.WithLabelValues("delete").Inc()
		return "Failed to delete task due to a database error."
	}
}

func (b *Bot) handleComplete(ctx context.Context, userID int64, args string) string {
	taskID, ok := parseTaskID(args)
	if !ok {
		return "Usage: /complete <task_id>"
	}

	err := b.tasks.Complete(ctx, userID, taskID)
	switch {
	case err == nil:
		return "Task marked as completed successfully!"
	case errors.Is(err, repository.ErrTaskNotFound):
		return "Task not found or already completed."
	default:
		b.log.Error("complete task failed", "user_id", userID, "task_id", taskID, "error", err)
		metrics.CommandErrors.WithLabelValues("complete").Inc()
		return "Failed to complete task due to a database error."
	}
}

// parseTaskID accepts exactly one non-negative integer argument.
func parseTaskID(args string) (int64, bool) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Notify sends an out-of-band message to a user, used for reminder pushes.
func (b *Bot) Notify(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
