package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"quizadmin/config"
	"quizadmin/models"

	"golang.org/x/sync/errgroup"
)

// broadcastWorkers bounds the fan-out parallelism of a broadcast. Results
// are still reported in recipient order.
const broadcastWorkers = 8

const (
	channelDefault     = "default"
	channelQuiz        = "quiz"
	channelAchievement = "achievement"

	screenQuizzes     = "/quizzes"
	screenQuizResults = "/quiz/results"
	screenProfile     = "/profile"
)

type PushService struct {
	users         *UserService
	notifications *NotificationService
	gatewayURL    string
	client        *http.Client
}

func NewPushService(users *UserService, notifications *NotificationService, gatewayURL string) *PushService {
	return &PushService{
		users:         users,
		notifications: notifications,
		gatewayURL:    gatewayURL,
		client:        http.DefaultClient,
	}
}

// pushMessage is the envelope the gateway expects.
type pushMessage struct {
	To        string                 `json:"to"`
	Sound     string                 `json:"sound"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data"`
	ChannelID string                 `json:"channelId,omitempty"`
	Priority  string                 `json:"priority"`
}

type SendResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type BroadcastEntry struct {
	UserID string `json:"user_id"`
	SendResult
}

type BroadcastResult struct {
	Success bool             `json:"success"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Results []BroadcastEntry `json:"results,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func failure(format string, args ...interface{}) *SendResult {
	return &SendResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Send resolves the recipient's delivery token, posts an envelope to the
// gateway and, whenever a response was parsed, records the attempt in the
// notification ledger. Gateway-reported failures still count as "we tried":
// the ledger write happens either way. Failures come back as values, never
// as errors, so broadcast loops can roll on.
func (s *PushService) Send(ctx context.Context, userID, title, body string, data map[string]interface{}, channelID string) *SendResult {
	log := config.Logger().WithField("user_id", userID)

	user, err := s.users.GetByClerkID(userID)
	if err != nil {
		return failure("%v", err)
	}
	if user == nil || !user.HasPushToken() {
		log.Debug("No push token found")
		return failure("No push token found")
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	if channelID == "" {
		channelID = channelDefault
	}
	message := pushMessage{
		To:        *user.PushToken,
		Sound:     "default",
		Title:     title,
		Body:      body,
		Data:      data,
		ChannelID: channelID,
		Priority:  "high",
	}

	payload, err := s.deliver(ctx, &message)
	if err != nil {
		log.WithError(err).Error("Error sending push notification")
		return failure("%v", err)
	}
	log.Debug("Push notification sent")

	// Record the attempt in the ledger regardless of whether the gateway
	// accepted the message.
	notificationType := models.NotificationTypeSystem
	if t, ok := data["type"].(string); ok && t != "" {
		notificationType = t
	}
	var quizID *string
	if q, ok := data["quizId"].(string); ok && q != "" {
		quizID = &q
	}
	if _, err := s.notifications.Create(userID, title, body, notificationType, quizID); err != nil {
		log.WithError(err).Warn("Failed to record push notification in ledger")
	}

	return &SendResult{Success: true, Data: payload}
}

// deliver posts the envelope and decodes the JSON response. A network error
// or a non-JSON body is a failure; there is no retry.
func (s *PushService) deliver(ctx context.Context, message *pushMessage) (interface{}, error) {
	encoded, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return payload, nil
}

// Broadcast sends to every recipient with bounded parallelism and reports a
// per-recipient result slice in the input order. The aggregate Success flag
// is true once the loop completes; individual failures show up in the counts
// and entries instead of failing the batch.
func (s *PushService) Broadcast(ctx context.Context, userIDs []string, title, body string, data map[string]interface{}, channelID string) *BroadcastResult {
	results := make([]BroadcastEntry, len(userIDs))

	g := new(errgroup.Group)
	g.SetLimit(broadcastWorkers)
	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			res := s.Send(ctx, userID, title, body, data, channelID)
			results[i] = BroadcastEntry{UserID: userID, SendResult: *res}
			return nil
		})
	}
	g.Wait()

	result := &BroadcastResult{Success: true, Results: results}
	for i := range results {
		if results[i].SendResult.Success {
			result.Sent++
		} else {
			result.Failed++
		}
	}
	return result
}

// BroadcastToRole resolves the recipient set from the role-scoped,
// push-enabled user query and delegates to Broadcast. An empty set short
// circuits before any gateway call.
func (s *PushService) BroadcastToRole(ctx context.Context, role, title, body string, data map[string]interface{}, channelID string) *BroadcastResult {
	users, err := s.users.PushableByRole(role)
	if err != nil {
		return &BroadcastResult{Success: false, Error: err.Error()}
	}
	if len(users) == 0 {
		config.Logger().WithField("role", role).Info("No pushable users found")
		return &BroadcastResult{Success: false, Error: "No push tokens registered"}
	}

	userIDs := make([]string, len(users))
	for i := range users {
		userIDs[i] = users[i].ClerkID
	}
	return s.Broadcast(ctx, userIDs, title, body, data, channelID)
}

// NotifyQuizCompleted tells a user how they scored. Perfect scores get the
// celebratory variant.
func (s *PushService) NotifyQuizCompleted(ctx context.Context, userID, quizTitle string, score, totalQuestions int) *SendResult {
	if totalQuestions <= 0 {
		return failure("totalQuestions must be positive")
	}

	percentage := int(math.Round(float64(score) / float64(totalQuestions) * 100))
	title := "✅ Quiz Completed!"
	body := fmt.Sprintf("You scored %d/%d (%d%%) on %q", score, totalQuestions, percentage, quizTitle)
	if score == totalQuestions {
		title = "🎉 Perfect Score!"
		body = fmt.Sprintf("Congratulations! You scored %d/%d on %q", score, totalQuestions, quizTitle)
	}

	return s.Send(ctx, userID, title, body, map[string]interface{}{
		"type":           channelQuiz,
		"screen":         screenQuizResults,
		"score":          score,
		"totalQuestions": totalQuestions,
	}, channelQuiz)
}

func (s *PushService) NotifyAchievement(ctx context.Context, userID, achievementTitle, achievementDescription string) *SendResult {
	return s.Send(ctx, userID, "🏆 "+achievementTitle, achievementDescription, map[string]interface{}{
		"type":   channelAchievement,
		"screen": screenProfile,
	}, channelAchievement)
}

// NotifyQuizActivity broadcasts a quiz event to every push-enabled user.
func (s *PushService) NotifyQuizActivity(ctx context.Context, quizID, title, body, screen, channelID string) *BroadcastResult {
	if screen == "" {
		screen = screenQuizzes
	}
	if channelID == "" {
		channelID = channelQuiz
	}

	return s.BroadcastToRole(ctx, models.RoleUser, title, body, map[string]interface{}{
		"type":   channelQuiz,
		"screen": screen,
		"quizId": quizID,
	}, channelID)
}

// SendTest pushes directly to an explicit token, bypassing user lookup and
// the ledger. Used to verify gateway connectivity.
func (s *PushService) SendTest(ctx context.Context, pushToken string) *SendResult {
	message := pushMessage{
		To:       pushToken,
		Sound:    "default",
		Title:    "🧪 Test Notification",
		Body:     "This is a test push notification from QuizAdmin!",
		Data:     map[string]interface{}{"test": true},
		Priority: "high",
	}

	payload, err := s.deliver(ctx, &message)
	if err != nil {
		config.Logger().WithError(err).Error("Error sending test push notification")
		return failure("%v", err)
	}
	return &SendResult{Success: true, Data: payload}
}
