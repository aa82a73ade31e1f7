package echoapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/etarip26/EduConnect/apps/api/echo"
	"github.com/etarip26/EduConnect/core/chat"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/user"
)

type chatFixture struct {
	app                  *testApp
	admin                user.User
	student, teacher     user.User
	adminTok             string
	studentTok, teachTok string
	match                match.Match
	room                 chat.Room
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	app := newTestApp(t)
	f := &chatFixture{app: app}
	f.admin = app.env.CreateAdmin(t)
	f.student = app.env.CreateStudent(t, "Rahim")
	f.teacher = app.env.CreateTeacher(t, "Karim")
	f.adminTok, f.studentTok, f.teachTok = app.token(t, f.admin), app.token(t, f.student), app.token(t, f.teacher)
	f.match = app.env.CreateMatch(t, f.student, f.teacher, f.admin)

	rec := app.do(t, http.MethodPost, "/api/chat/rooms", f.studentTok, echoapi.RoomRequest{MatchID: f.match.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Room chat.Room `json:"room"`
	}
	decode(t, rec, &resp)
	f.room = resp.Room
	return f
}

func (f *chatFixture) messages(t *testing.T, token string) []chat.Message {
	t.Helper()
	rec := f.app.do(t, http.MethodGet, "/api/chat/rooms/"+f.room.ID+"/messages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Messages []chat.Message `json:"messages"`
	}
	decode(t, rec, &resp)
	return resp.Messages
}

func TestChatApi_rooms(t *testing.T) {
	f := newChatFixture(t)
	assert.Equal(t, f.match.ID, f.room.MatchID)

	// the other party gets the same room
	rec := f.app.do(t, http.MethodPost, "/api/chat/rooms", f.teachTok, echoapi.RoomRequest{MatchID: f.match.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Room chat.Room `json:"room"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, f.room.ID, resp.Room.ID)

	var rooms struct {
		Rooms []chat.Room `json:"rooms"`
	}
	decode(t, f.app.do(t, http.MethodGet, "/api/chat/rooms/my", f.teachTok, nil), &rooms)
	require.Len(t, rooms.Rooms, 1)

	outsider := f.app.env.CreateTeacher(t, "Outsider")
	rec = f.app.do(t, http.MethodGet, "/api/chat/rooms/"+f.room.ID+"/messages", f.app.token(t, outsider), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.app.do(t, http.MethodGet, "/api/chat/rooms/my", f.adminTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "admins do not chat")
}

func TestChatApi_messages(t *testing.T) {
	f := newChatFixture(t)
	path := "/api/chat/rooms/" + f.room.ID + "/messages"

	rec := f.app.do(t, http.MethodPost, path, f.studentTok, echoapi.MessageRequest{Content: "  Hello sir "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sent struct {
		Message chat.Message `json:"chat_message"`
	}
	decode(t, rec, &sent)
	assert.Equal(t, "Hello sir", sent.Message.Content)
	assert.Equal(t, chat.StatusSent, sent.Message.Status)

	rec = f.app.do(t, http.MethodPost, path, f.studentTok, echoapi.MessageRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.app.do(t, http.MethodPost, path, f.studentTok, echoapi.MessageRequest{Content: "what the SHIT"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errMessage(t, rec), "prohibited word")

	msgs := f.messages(t, f.teachTok)
	require.Len(t, msgs, 1, "rejected messages are not stored")

	// the reader marks the other party's messages as seen
	rec = f.app.do(t, http.MethodPatch, "/api/chat/rooms/"+f.room.ID+"/read", f.studentTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var read struct {
		Updated int `json:"updated"`
	}
	decode(t, rec, &read)
	assert.Equal(t, 0, read.Updated)

	rec = f.app.do(t, http.MethodPatch, "/api/chat/rooms/"+f.room.ID+"/read", f.teachTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &read)
	assert.Equal(t, 1, read.Updated)
	assert.Equal(t, chat.StatusSeen, f.messages(t, f.studentTok)[0].Status)
}

func TestChatApi_gate(t *testing.T) {
	f := newChatFixture(t)
	path := "/api/chat/rooms/" + f.room.ID + "/messages"
	hello := echoapi.MessageRequest{Content: "hello"}

	// parent control blocks the student only
	rec := f.app.do(t, http.MethodPatch, "/api/admin/students/"+f.student.ID+"/parent-control", f.adminTok, map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.app.do(t, http.MethodPost, path, f.studentTok, hello)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusCreated, f.app.do(t, http.MethodPost, path, f.teachTok, hello).Code)

	rec = f.app.do(t, http.MethodPatch, "/api/admin/students/"+f.student.ID+"/parent-control", f.adminTok, map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusCreated, f.app.do(t, http.MethodPost, path, f.studentTok, hello).Code)

	// the admin locks chat for the match
	rec = f.app.do(t, http.MethodPatch, "/api/admin/matches/"+f.match.ID+"/capabilities", f.adminTok, map[string]bool{"is_chat_allowed": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, f.app.do(t, http.MethodPost, path, f.studentTok, hello).Code)
	assert.Equal(t, http.StatusForbidden, f.app.do(t, http.MethodPost, path, f.teachTok, hello).Code)

	rec = f.app.do(t, http.MethodPatch, "/api/admin/matches/"+f.match.ID+"/capabilities", f.adminTok, map[string]bool{"is_chat_allowed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusCreated, f.app.do(t, http.MethodPost, path, f.teachTok, hello).Code)

	// an ended match closes the room for good
	require.Equal(t, http.StatusOK, f.app.do(t, http.MethodPatch, "/api/matches/"+f.match.ID+"/end", f.teachTok, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.app.do(t, http.MethodPost, path, f.studentTok, hello).Code)
	assert.Equal(t, http.StatusForbidden, f.app.do(t, http.MethodGet, path, f.teachTok, nil).Code)
}

func dialRoom(t *testing.T, srv *httptest.Server, roomID, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws?room_id=" + roomID + "&token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readEvent(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(v))
}

func TestChatApi_websocket(t *testing.T) {
	f := newChatFixture(t)
	srv := httptest.NewServer(f.app.srv)
	defer srv.Close()

	teacherConn, _, err := dialRoom(t, srv, f.room.ID, f.teachTok)
	require.NoError(t, err)
	defer teacherConn.Close()
	studentConn, _, err := dialRoom(t, srv, f.room.ID, f.studentTok)
	require.NoError(t, err)
	defer studentConn.Close()

	// a frame from the student reaches both ends
	require.NoError(t, studentConn.WriteJSON(echoapi.ClientFrame{Type: "message", Content: "Are we on for tomorrow?"}))
	for _, conn := range []*websocket.Conn{teacherConn, studentConn} {
		var evt chat.Event
		readEvent(t, conn, &evt)
		assert.Equal(t, chat.EventMessage, evt.Type)
		assert.Equal(t, f.student.ID, evt.UserID)
		require.NotNil(t, evt.Message)
		assert.Equal(t, "Are we on for tomorrow?", evt.Message.Content)
	}

	// a REST message is relayed too
	rec := f.app.do(t, http.MethodPost, "/api/chat/rooms/"+f.room.ID+"/messages", f.teachTok, echoapi.MessageRequest{Content: "Yes, at 5pm"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var evt chat.Event
	readEvent(t, studentConn, &evt)
	assert.Equal(t, "Yes, at 5pm", evt.Message.Content)

	// denied words come back as an error frame and are not relayed
	require.NoError(t, studentConn.WriteJSON(echoapi.ClientFrame{Type: "message", Content: "you asshole"}))
	var errFrame echoapi.ErrorFrame
	readEvent(t, studentConn, &errFrame)
	assert.Equal(t, "error", errFrame.Type)
	assert.Contains(t, errFrame.Message, "prohibited word")

	require.NoError(t, studentConn.WriteJSON(echoapi.ClientFrame{Type: "typing"}))
	readEvent(t, teacherConn, &evt)
	assert.Equal(t, "Yes, at 5pm", evt.Message.Content)
	readEvent(t, teacherConn, &evt)
	assert.Equal(t, chat.EventTyping, evt.Type)
	assert.Equal(t, f.student.ID, evt.UserID)

	assert.Len(t, f.messages(t, f.teachTok), 2)
}

func TestChatApi_websocketRejected(t *testing.T) {
	f := newChatFixture(t)
	srv := httptest.NewServer(f.app.srv)
	defer srv.Close()

	tests := []struct {
		name     string
		roomID   string
		token    string
		wantCode int
	}{
		{name: "no token", roomID: f.room.ID, wantCode: http.StatusUnauthorized},
		{name: "bad token", roomID: f.room.ID, token: "garbage", wantCode: http.StatusUnauthorized},
		{name: "no room", token: f.studentTok, wantCode: http.StatusBadRequest},
		{name: "unknown room", roomID: "nope", token: f.studentTok, wantCode: http.StatusNotFound},
		{name: "outsider", roomID: f.room.ID, token: f.app.token(t, f.app.env.CreateTeacher(t, "Outsider")), wantCode: http.StatusForbidden},
		{name: "admin", roomID: f.room.ID, token: f.adminTok, wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := dialRoom(t, srv, tt.roomID, tt.token)
			if conn != nil {
				_ = conn.Close()
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}
