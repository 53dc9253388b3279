package service

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

func TestSendToRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.employee(t, repository.RoleAdmin, "admin@x.io")
	s1 := f.employee(t, repository.RoleSales, "s1@x.io")
	s2 := f.employee(t, repository.RoleSales, "s2@x.io")
	f.employee(t, repository.RoleRTO, "rto@x.io")

	res, err := f.notify.Send(ctx, admin, &SendRequest{
		Title: "Meeting", Message: "3pm", TargetType: "role", TargetID: json.RawMessage(`"sales"`),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.RecipientCount != 2 {
		t.Fatalf("recipients = %d", res.RecipientCount)
	}
	if len(f.published.calls) != 1 || len(f.published.calls[0]) != 2 {
		t.Fatalf("published = %v", f.published.calls)
	}

	for _, p := range []auth.Principal{s1, s2} {
		n, err := f.notify.UnreadCount(ctx, p, p.ID)
		if err != nil || n != 1 {
			t.Fatalf("unread for %d = %d, %v", p.ID, n, err)
		}
	}

	list, err := f.notify.ListForEmployee(ctx, s1, s1.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
	if list[0].SenderName == nil || *list[0].SenderName != "admin@x.io" {
		t.Fatalf("sender name = %v", list[0].SenderName)
	}

	if err := f.notify.MarkRead(ctx, s1, res.NotificationID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n, _ := f.notify.UnreadCount(ctx, s1, s1.ID); n != 0 {
		t.Fatalf("unread after read = %d", n)
	}
	if n, _ := f.notify.UnreadCount(ctx, s2, s2.ID); n != 1 {
		t.Fatalf("other recipient unread = %d", n)
	}
}

func TestSendToEmptyAudience(t *testing.T) {
	f := newFixture(t)
	admin := f.employee(t, repository.RoleAdmin, "admin@x.io")

	res, err := f.notify.Send(context.Background(), admin, &SendRequest{
		Title: "t", Message: "m", TargetType: "role", TargetID: json.RawMessage(`"service"`),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.RecipientCount != 0 || res.NotificationID == 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestSendRollsBackOnFanOutFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.employee(t, repository.RoleAdmin, "admin@x.io")
	s1 := f.employee(t, repository.RoleSales, "s1@x.io")
	f.employee(t, repository.RoleSales, "s2@x.io")
	f.store.FailFanOutAfter(1)

	_, err := f.notify.Send(ctx, admin, &SendRequest{Title: "t", Message: "m", TargetType: "all"})
	if err == nil {
		t.Fatal("expected fan-out failure")
	}
	if len(f.published.calls) != 0 {
		t.Fatal("failed send was published")
	}
	if n := f.store.ReadRows(); n != 0 {
		t.Fatalf("read rows left behind: %d", n)
	}
	if list, _ := f.notify.ListForEmployee(ctx, s1, s1.ID); len(list) != 0 {
		t.Fatalf("recipient sees %d notifications", len(list))
	}
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	admin := f.employee(t, repository.RoleAdmin, "admin@x.io")

	tests := []struct {
		name string
		req  SendRequest
	}{
		{"blank title", SendRequest{Title: " ", Message: "m", TargetType: "all"}},
		{"unknown target", SendRequest{Title: "t", Message: "m", TargetType: "everyone"}},
		{"bad role", SendRequest{Title: "t", Message: "m", TargetType: "role", TargetID: json.RawMessage(`"chef"`)}},
		{"employee without id", SendRequest{Title: "t", Message: "m", TargetType: "employee"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.notify.Send(context.Background(), admin, &tt.req); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestNotificationAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.employee(t, repository.RoleAdmin, "admin@x.io")
	s1 := f.employee(t, repository.RoleSales, "s1@x.io")
	s2 := f.employee(t, repository.RoleSales, "s2@x.io")

	res, err := f.notify.Send(ctx, admin, &SendRequest{
		Title: "t", Message: "m", TargetType: "employee", TargetID: json.RawMessage(strconv.FormatInt(s1.ID, 10)),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.notify.ListForEmployee(ctx, s2, s1.ID); !errors.Is(err, errors.ErrCodeForbidden) {
		t.Fatalf("foreign list err = %v", err)
	}
	if _, err := f.notify.UnreadCount(ctx, s2, s1.ID); !errors.Is(err, errors.ErrCodeForbidden) {
		t.Fatalf("foreign count err = %v", err)
	}
	if _, err := f.notify.ListForEmployee(ctx, admin, s1.ID); err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if err := f.notify.MarkRead(ctx, s2, res.NotificationID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("mark read by non-recipient err = %v", err)
	}
}
