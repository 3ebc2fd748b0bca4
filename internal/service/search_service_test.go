package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/pkg/serverutils"
	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/agent/turn"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type turnRunnerFunc func(ctx context.Context, sess *session.Session, in turn.Input) error

func (f turnRunnerFunc) Run(ctx context.Context, sess *session.Session, in turn.Input) error {
	return f(ctx, sess, in)
}

func drainStream(t *testing.T, sub *session.Subscription) []session.Event {
	t.Helper()
	var events []session.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("stream did not finish, got %d events", len(events))
			return events
		}
	}
}

func sendRequest(chatId uuid.UUID) *dto.SendMessageRequest {
	return &dto.SendMessageRequest{
		ChatId:    chatId,
		MessageId: "msg-1",
		Content:   "minimalist oak desk for a small studio",
		History: []dto.HistoryMessageDTO{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "Hello! What are you looking for?"},
		},
		Sources:          []string{turn.SourceShopping},
		OptimizationMode: "quality",
		Files:            []uuid.UUID{uuid.MustParse("6f1c1c9e-9d7a-4b7e-8f57-1f6e0b8f0a11")},
	}
}

func TestSearchService_StartTurnStreamsFromFirstEvent(t *testing.T) {
	db := newMemDB()
	credits := newCreditService(db)
	registry := session.NewRegistry(time.Minute)

	gotInput := make(chan turn.Input, 1)
	runner := turnRunnerFunc(func(ctx context.Context, sess *session.Session, in turn.Input) error {
		gotInput <- in
		if err := sess.EmitBlock(session.NewTextBlock("t1", "Here you go.")); err != nil {
			return err
		}
		return sess.End()
	})

	svc := NewSearchService(db, credits, runner, registry, 1, time.Minute, nopLogger)
	userId := uuid.New()
	chatId := uuid.New()

	stream, err := svc.StartTurn(context.Background(), userId, sendRequest(chatId))
	require.NoError(t, err)
	assert.Empty(t, stream.Blocks)

	events := drainStream(t, stream.Subscription)
	require.Len(t, events, 2)
	assert.Equal(t, session.EventBlock, events[0].Type)
	assert.Equal(t, session.EventMessageEnd, events[1].Type)

	in := <-gotInput
	assert.Equal(t, chatId.String(), in.ChatID)
	assert.Equal(t, "msg-1", in.MsgID)
	assert.Equal(t, userId.String(), in.UserID)
	assert.Equal(t, turn.ModeQuality, in.Config.Mode)
	assert.Equal(t, []string{"6f1c1c9e-9d7a-4b7e-8f57-1f6e0b8f0a11"}, in.Config.FileIDs)
	require.Len(t, in.History, 2)
	assert.Equal(t, "assistant", in.History[1].Role)

	assert.Equal(t, 2, db.user(userId).Credits)
	require.Len(t, db.chats, 1)
	assert.Equal(t, userId, db.chats[0].UserId)
	assert.Equal(t, []string{turn.SourceShopping}, db.chats[0].Sources)

	_, ok := registry.Get(stream.SessionID)
	assert.True(t, ok)
}

func TestSearchService_StartTurnRejections(t *testing.T) {
	owner := uuid.New()
	chatId := uuid.New()

	tests := []struct {
		name     string
		credits  int
		chatUser uuid.UUID
		wantCode int
	}{
		{name: "no credits left", credits: 0, chatUser: uuid.Nil, wantCode: 402},
		{name: "chat of another user", credits: 3, chatUser: owner, wantCode: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemDB()
			userId := uuid.New()
			db.users = []*entity.User{{Id: userId, Credits: tt.credits}}
			if tt.chatUser != uuid.Nil {
				db.chats = []*entity.Chat{{Id: chatId, UserId: tt.chatUser}}
			}
			registry := session.NewRegistry(time.Minute)
			runner := turnRunnerFunc(func(ctx context.Context, sess *session.Session, in turn.Input) error {
				t.Error("turn must not start")
				return nil
			})

			svc := NewSearchService(db, newCreditService(db), runner, registry, 1, time.Minute, nopLogger)
			_, err := svc.StartTurn(context.Background(), userId, sendRequest(chatId))

			var appErr *serverutils.AppError
			require.True(t, errors.As(err, &appErr), "got %v", err)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, 0, registry.Len())
		})
	}
}

func TestSearchService_AttachSeesStoredBlocks(t *testing.T) {
	registry := session.NewRegistry(time.Minute)
	sess := registry.Create()
	require.NoError(t, sess.EmitBlock(session.NewTextBlock("t1", "partial")))

	svc := NewSearchService(newMemDB(), nil, nil, registry, 1, time.Minute, nopLogger)

	stream, err := svc.Attach(context.Background(), sess.ID())
	require.NoError(t, err)
	require.Len(t, stream.Blocks, 1)
	assert.Equal(t, "t1", stream.Blocks[0].ID)

	require.NoError(t, sess.End())
	events := drainStream(t, stream.Subscription)
	require.Len(t, events, 1)
	assert.Equal(t, session.EventMessageEnd, events[0].Type)

	_, err = svc.Attach(context.Background(), "unknown")
	var appErr *serverutils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Code)
}

func TestSearchService_GetMessages(t *testing.T) {
	db := newMemDB()
	userId := uuid.New()
	chatId := uuid.New()
	db.chats = []*entity.Chat{{Id: chatId, UserId: userId, Title: "desk"}}
	db.messages = []*entity.Message{{
		Id: uuid.New(), MessageId: "m1", ChatId: chatId, Status: entity.MessageStatusCompleted,
		ResponseBlocks: json.RawMessage(`[{"id":"t1","type":"text","data":"ok"}]`),
	}}

	svc := NewSearchService(db, nil, nil, session.NewRegistry(0), 1, 0, nopLogger)

	res, err := svc.GetMessages(context.Background(), userId, chatId)
	require.NoError(t, err)
	assert.Equal(t, "desk", res.Title)
	require.Len(t, res.Messages, 1)
	assert.JSONEq(t, `[{"id":"t1","type":"text","data":"ok"}]`, string(res.Messages[0].ResponseBlocks))

	_, err = svc.GetMessages(context.Background(), uuid.New(), chatId)
	var appErr *serverutils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Code)
}
