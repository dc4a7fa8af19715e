package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taskbot/internal/domain"
	"taskbot/internal/logger"
	"taskbot/internal/repository"
	"taskbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createCall struct {
	userID      int64
	description string
	category    string
	deadline    string
}

type idCall struct {
	userID int64
	taskID int64
}

type fakeTaskService struct {
	created   []createCall
	deleted   []idCall
	completed []idCall

	createErr   error
	listTasks   []*domain.Task
	listErr     error
	deleteErr   error
	completeErr error
}

func (f *fakeTaskService) Create(_ context.Context, userID int64, description, category, deadline string) (*domain.Task, error) {
	f.created = append(f.created, createCall{userID, description, category, deadline})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Task{ID: 1, UserID: userID, Description: strings.TrimSpace(description)}, nil
}

func (f *fakeTaskService) ListOpen(_ context.Context, userID int64) ([]*domain.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listTasks, nil
}

func (f *fakeTaskService) Delete(_ context.Context, userID, taskID int64) error {
	f.deleted = append(f.deleted, idCall{userID, taskID})
	return f.deleteErr
}

func (f *fakeTaskService) Complete(_ context.Context, userID, taskID int64) error {
	f.completed = append(f.completed, idCall{userID, taskID})
	return f.completeErr
}

type allowAll struct{}

func (allowAll) Allow(context.Context, int64) bool { return true }

type denyAll struct{}

func (denyAll) Allow(context.Context, int64) bool { return false }

func newTestBot(tasks TaskService) *Bot {
	return &Bot{
		tasks:   tasks,
		limiter: allowAll{},
		log:     logger.With("component", "bot"),
	}
}

// commandMessage builds an update message the way Telegram delivers commands:
// the text plus a bot_command entity covering the leading /command.
func commandMessage(userID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i != -1 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: userID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func TestStartReply(t *testing.T) {
	b := newTestBot(&fakeTaskService{})

	got := b.dispatch(context.Background(), commandMessage(1, "/start"))
	assert.Equal(t, "Welcome to your personal To-Do List Bot!", got)
}

func TestHelpListsEveryCommand(t *testing.T) {
	b := newTestBot(&fakeTaskService{})

	got := b.dispatch(context.Background(), commandMessage(1, "/help"))
	for _, cmd := range []string{"/add", "/list", "/complete", "/delete", "/help"} {
		assert.Contains(t, got, cmd)
	}
}

func TestUnknownCommandPointsToHelp(t *testing.T) {
	b := newTestBot(&fakeTaskService{})

	got := b.dispatch(context.Background(), commandMessage(1, "/frobnicate"))
	assert.Equal(t, "Unknown command. Use /help to see available commands.", got)
}

func TestAddSplitsArgumentsOnSemicolon(t *testing.T) {
	fake := &fakeTaskService{}
	b := newTestBot(fake)

	got := b.dispatch(context.Background(), commandMessage(7, "/add Prepare presentation; work; 2023-10-15 09:00"))
	assert.Equal(t, "Task added successfully!", got)

	require.Len(t, fake.created, 1)
	call := fake.created[0]
	assert.Equal(t, int64(7), call.userID)
	assert.Equal(t, "Prepare presentation", strings.TrimSpace(call.description))
	assert.Equal(t, "work", strings.TrimSpace(call.category))
	assert.Equal(t, "2023-10-15 09:00", strings.TrimSpace(call.deadline))
}

func TestAddWithDescriptionOnly(t *testing.T) {
	fake := &fakeTaskService{}
	b := newTestBot(fake)

	got := b.dispatch(context.Background(), commandMessage(7, "/add Buy milk"))
	assert.Equal(t, "Task added successfully!", got)

	require.Len(t, fake.created, 1)
	assert.Equal(t, "Buy milk", strings.TrimSpace(fake.created[0].description))
	assert.Empty(t, fake.created[0].category)
	assert.Empty(t, fake.created[0].deadline)
}

func TestAddEmptyDescriptionShowsUsage(t *testing.T) {
	fake := &fakeTaskService{createErr: service.ErrEmptyDescription}
	b := newTestBot(fake)

	got := b.dispatch(context.Background(), commandMessage(1, "/add"))
	assert.Equal(t, "Usage: /add <description>; <category>; <deadline: YYYY-MM-DD HH:MM>", got)
}

func TestAddInvalidDeadlineReply(t *testing.T) {
	fake := &fakeTaskService{createErr: service.ErrInvalidDeadline}
	b := newTestBot(fake)

	got := b.dispatch(context.Background(), commandMessage(1, "/add Buy milk; ; tomorrow"))
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD HH:MM.", got)
}

func TestAddStorageErrorReply(t *testing.T) {
	fake := &fakeTaskService{createErr: errors.New("connection refused")}
	b := newTestBot(fake)

	got := b.dispatch(context.Background(), commandMessage(1, "/add Buy milk"))
	assert.Equal(t, "Failed to add task due to a database error.", got)
}

func TestListFormatsTasks(t *testing.T) {
	deadline := "2023-10-15 09:00:00"
	fake := &fakeTaskService{listTasks: []*domain.Task{
		{ID: 1, Description: "Prepare presentation", Category: "general", Deadline: &deadline},
		{ID: 2, Description: "Buy milk", Category: "errands"},
	}}
	b := newTestBot(fake)

	got := b.dispatch(context.Background(), commandMessage(1, "/list"))
	want := "Prepare presentation - general - due by 2023-10-15 09:00:00\n" +
		"Buy milk - errands - no deadline"
	assert.Equal(t, want, got)
}

func TestListEmpty(t *testing.T) {
	b := newTestBot(&fakeTaskService{})

	got := b.dispatch(context.Background(), commandMessage(1, "/list"))
	assert.Equal(t, "No tasks found.", got)
}

func TestListStorageErrorReply(t *testing.T) {
	fake := &fakeTaskService{listErr: errors.New("connection refused")}
	b := newTestBot(fake)

	got := b.dispatch(context.Background(), commandMessage(1, "/list"))
	assert.Equal(t, "Failed to list tasks due to a database error.", got)
}

func TestDeleteReplies(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "Task deleted successfully!"},
		{"not found", repository.ErrTaskNotFound, "Task not found or does not belong to you."},
		{"storage error", errors.New("connection refused"), "Failed to delete task due to a database error."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeTaskService{deleteErr: tc.err}
			b := newTestBot(fake)

			got := b.dispatch(context.Background(), commandMessage(5, "/delete 3"))
			assert.Equal(t, tc.want, got)

			require.Len(t, fake.deleted, 1)
			assert.Equal(t, idCall{userID: 5, taskID: 3}, fake.deleted[0])
		})
	}
}

func TestCompleteReplies(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "Task marked as completed successfully!"},
		{"not found or done", repository.ErrTaskNotFound, "Task not found or already completed."},
		{"storage error", errors.New("connection refused"), "Failed to complete task due to a database error."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeTaskService{completeErr: tc.err}
			b := newTestBot(fake)

			got := b.dispatch(context.Background(), commandMessage(5, "/complete 3"))
			assert.Equal(t, tc.want, got)

			require.Len(t, fake.completed, 1)
			assert.Equal(t, idCall{userID: 5, taskID: 3}, fake.completed[0])
		})
	}
}

func TestTaskIDParsing(t *testing.T) {
	invalid := []string{"/delete", "/delete abc", "/delete -1", "/delete 3 4", "/delete 1.5"}

	for _, text := range invalid {
		fake := &fakeTaskService{}
		b := newTestBot(fake)

		got := b.dispatch(context.Background(), commandMessage(1, text))
		assert.Equal(t, "Usage: /delete <task_id>", got, "input %q", text)
		assert.Empty(t, fake.deleted, "input %q must not reach the store", text)
	}

	fake := &fakeTaskService{}
	b := newTestBot(fake)
	got := b.dispatch(context.Background(), commandMessage(1, "/complete abc"))
	assert.Equal(t, "Usage: /complete <task_id>", got)
	assert.Empty(t, fake.completed)
}

func TestIdentityComesFromTransport(t *testing.T) {
	// The sender's id scopes the operation; nothing in the text can override it.
	fake := &fakeTaskService{}
	b := newTestBot(fake)

	b.dispatch(context.Background(), commandMessage(99, "/delete 123"))

	require.Len(t, fake.deleted, 1)
	assert.Equal(t, int64(99), fake.deleted[0].userID)
	assert.Equal(t, int64(123), fake.deleted[0].taskID)
}

func TestRateLimitedCommandRejected(t *testing.T) {
	fake := &fakeTaskService{}
	b := newTestBot(fake)
	b.limiter = denyAll{}

	got := b.dispatch(context.Background(), commandMessage(1, "/list"))
	assert.Equal(t, "Too many commands. Please slow down.", got)
	assert.Empty(t, fake.created)
}
