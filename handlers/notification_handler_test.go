package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizadmin/middleware"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedFixture struct {
	router *gin.Engine
	hub    *services.Hub
	users  *services.UserService
	wsURL  string
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	db := newHandlerDB(t)
	users := services.NewUserService(db)
	hub := services.NewHub()
	go hub.Run()
	notifications := services.NewNotificationService(db, nil, hub)
	handler := NewNotificationHandler(notifications, hub)

	router := gin.New()
	api := router.Group("/api", middleware.AuthMiddleware(testSecret))
	api.POST("/notifications/broadcast", middleware.RequireAdmin(users), handler.BroadcastNotification)
	api.GET("/admin/feed", middleware.RequireAdmin(users), handler.FeedStatus)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.RegisterClient(conn, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)

	return &feedFixture{router: router, hub: hub, users: users, wsURL: srv.URL}
}

func (f *feedFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.wsURL, "http") + "?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		for _, id := range f.hub.ConnectedUsers() {
			if id == userID {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	return conn
}

func TestBroadcastNotificationAnnouncesOnFeed(t *testing.T) {
	f := newFeedFixture(t)
	syncFixtureUser(t, f.users, "admin_1") // first sync wins admin
	syncFixtureUser(t, f.users, "user_1")

	conn := f.dial(t, "user_1")

	w := doJSON(t, f.router, http.MethodPost, "/api/notifications/broadcast", "admin_1",
		`{"user_ids":["user_1"],"title":"Maintenance","message":"Back soon","type":"system"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	// the recipient's connection sees both the per-user notification event
	// and the all-dashboards announcement
	seen := map[string]bool{}
	for i := 0; i < 5 && !(seen["notification"] && seen["announcement"]); i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg services.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		seen[msg.Type] = true
	}
	assert.True(t, seen["notification"])
	assert.True(t, seen["announcement"])
}

func TestFeedStatus(t *testing.T) {
	f := newFeedFixture(t)
	syncFixtureUser(t, f.users, "admin_1")
	syncFixtureUser(t, f.users, "user_1")

	f.dial(t, "user_1")

	w := doJSON(t, f.router, http.MethodGet, "/api/admin/feed", "admin_1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user_1")
	assert.Contains(t, w.Body.String(), `"count":1`)

	// non-admins cannot inspect the feed
	w = doJSON(t, f.router, http.MethodGet, "/api/admin/feed", "user_1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
