package services

import (
	"context"
	"net/http"
	"testing"

	"pokebattle-backend/internal/models"

	"github.com/sideshow/apns2"
)

type fakeAPNs struct {
	sent   []*apns2.Notification
	status int
}

func (f *fakeAPNs) PushWithContext(_ apns2.Context, n *apns2.Notification) (*apns2.Response, error) {
	f.sent = append(f.sent, n)
	return &apns2.Response{StatusCode: f.status, ApnsID: "apns-1"}, nil
}

func TestPushService_Notify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	token := "abc123"
	env.addUser(t, &models.User{ID: "u4", Email: "misty@kanto.io", PushToken: &token})

	client := &fakeAPNs{status: http.StatusOK}
	push := &PushService{client: client, topic: "io.pokebattle.app", userRepo: env.users}

	if err := push.Notify(ctx, "u4", "b1", "Your move!"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(client.sent))
	}
	n := client.sent[0]
	if n.DeviceToken != token || n.Topic != "io.pokebattle.app" {
		t.Errorf("notification = %+v", n)
	}

	// no token, unknown user: silently skipped
	for _, id := range []string{"u1", "ghost"} {
		if err := push.Notify(ctx, id, "b1", "x"); err != nil {
			t.Errorf("Notify(%s) error = %v", id, err)
		}
	}
	if len(client.sent) != 1 {
		t.Errorf("sent %d notifications, want 1", len(client.sent))
	}
}

func TestPushService_Rejected(t *testing.T) {
	env := newTestEnv(t)
	token := "abc123"
	env.addUser(t, &models.User{ID: "u4", Email: "misty@kanto.io", PushToken: &token})

	push := &PushService{client: &fakeAPNs{status: http.StatusGone}, userRepo: env.users}
	if err := push.Notify(context.Background(), "u4", "b1", "x"); err == nil {
		t.Error("Notify() error = nil, want rejection error")
	}
}
