package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-task-tracker/internal/dto"
	"github.com/yukikurage/team-task-tracker/internal/models"
)

func TestChatHandler_MessageLifecycle(t *testing.T) {
	env := setupAPI(t)
	alice, aliceToken := env.user(t, "alice", models.RoleEmployee)
	bob, bobToken := env.user(t, "bob", models.RoleEmployee)

	w := env.do(t, http.MethodPost, "/api/messages", aliceToken, map[string]interface{}{
		"receiverId": strconv.FormatUint(bob.ID, 10),
		"content":    "hello",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sent dto.MessageDTO
	decode(t, w, &sent)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, alice.ID, sent.SenderID)
	assert.False(t, sent.Read)
	assert.Contains(t, w.Body.String(), `"receiverId"`)

	// only the sender edits
	w = env.do(t, http.MethodPut, "/api/messages/"+sent.ID, bobToken, map[string]string{"content": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/messages/"+sent.ID, aliceToken, map[string]string{"content": "hello bob"})
	require.Equal(t, http.StatusOK, w.Code)
	var edited dto.MessageDTO
	decode(t, w, &edited)
	assert.Equal(t, "hello bob", edited.Content)
	assert.True(t, edited.Edited)

	// only the receiver marks as read
	w = env.do(t, http.MethodPost, "/api/messages/"+sent.ID+"/read", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages/"+sent.ID+"/read", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var read dto.MessageDTO
	decode(t, w, &read)
	assert.True(t, read.Read)
	assert.NotNil(t, read.ReadAt)

	w = env.do(t, http.MethodGet, "/api/messages/"+strconv.FormatUint(alice.ID, 10), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Messages []dto.MessageDTO `json:"messages"`
		Page     int              `json:"page"`
	}
	decode(t, w, &page)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, 1, page.Page)

	w = env.do(t, http.MethodDelete, "/api/messages/"+sent.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/messages/"+sent.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+sent.ID+`"}`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/messages/"+sent.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatHandler_SendValidation(t *testing.T) {
	env := setupAPI(t)
	alice, token := env.user(t, "alice", models.RoleEmployee)

	tests := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"missing receiver", map[string]interface{}{"content": "hi"}, http.StatusBadRequest},
		{"blank content", map[string]interface{}{"receiverId": 42, "content": "   "}, http.StatusBadRequest},
		{"unknown receiver", map[string]interface{}{"receiverId": 9999, "content": "hi"}, http.StatusBadRequest},
		{"to self", map[string]interface{}{"receiverId": alice.ID, "content": "hi"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/messages", token, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	w := env.do(t, http.MethodPut, "/api/messages/not-a-uuid", token, map[string]string{"content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatHandler_Stream(t *testing.T) {
	env := setupAPI(t)
	alice, aliceToken := env.user(t, "alice", models.RoleEmployee)
	bob, bobToken := env.user(t, "bob", models.RoleEmployee)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/messages/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bobToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")
	assert.True(t, env.hub.Online(bob.ID))

	w := env.do(t, http.MethodPost, "/api/messages/typing", aliceToken, map[string]interface{}{
		"receiverId": bob.ID,
		"isTyping":   true,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages", aliceToken, map[string]interface{}{
		"receiverId": bob.ID,
		"content":    "ping",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	events := readEvents(t, bufio.NewScanner(resp.Body), 2)

	assert.Equal(t, "typing_status", events[0].name)
	assert.JSONEq(t, `{"userId":`+strconv.FormatUint(alice.ID, 10)+`,"isTyping":true}`, events[0].data)

	assert.Equal(t, "message_received", events[1].name)
	var msg dto.MessageDTO
	require.NoError(t, json.Unmarshal([]byte(events[1].data), &msg))
	assert.Equal(t, "ping", msg.Content)
	assert.Equal(t, alice.ID, msg.SenderID)
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, scanner *bufio.Scanner, n int) []sseEvent {
	t.Helper()

	var events []sseEvent
	var current sseEvent
	for len(events) < n && scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			current.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			current.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if current.name != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	require.Len(t, events, n, "stream ended early: %v", scanner.Err())
	return events
}
