package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

func captureServer(t *testing.T, status int, got *discordPayload) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscord_Down(t *testing.T) {
	var got discordPayload
	srv := captureServer(t, http.StatusNoContent, &got)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := NewDiscord(srv.URL, "Status Monitor").Notify(context.Background(), Notification{
		Kind:        KindDown,
		ServiceName: "API",
		RegionName:  "US East",
		Error:       "timeout",
		Time:        at,
	})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	want := discordPayload{Embeds: []discordEmbed{{
		Title:       "🔴 Service Down",
		Description: "**API** in **US East** is down.",
		Color:       15158332,
		Fields: []discordField{
			{Name: "Error", Value: "`timeout`"},
			{Name: "Time", Value: "2026-01-02T03:04:05Z"},
		},
		Footer:    discordFooter{Text: "Status Monitor"},
		Timestamp: "2026-01-02T03:04:05Z",
	}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscord_Recovered(t *testing.T) {
	var got discordPayload
	srv := captureServer(t, http.StatusOK, &got)

	err := NewDiscord(srv.URL, "").Notify(context.Background(), Notification{
		Kind:        KindRecovered,
		ServiceName: "DB",
		RegionName:  "EU",
		Duration:    "1m 35s",
		Time:        time.Unix(0, 0),
	})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	embed := got.Embeds[0]
	if embed.Color != 3066993 || embed.Title != "🟢 Service Recovered" {
		t.Errorf("unexpected embed header: %+v", embed)
	}
	if embed.Description != "**DB** in **EU** is back online." {
		t.Errorf("Description = %q", embed.Description)
	}
	if embed.Fields[0] != (discordField{Name: "Downtime Duration", Value: "1m 35s"}) {
		t.Errorf("Fields[0] = %+v", embed.Fields[0])
	}
}

func TestDiscord_Non2xxIsError(t *testing.T) {
	var got discordPayload
	srv := captureServer(t, http.StatusTooManyRequests, &got)

	err := NewDiscord(srv.URL, "").Notify(context.Background(), Notification{Kind: KindDown, Time: time.Now()})
	if err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestNoop(t *testing.T) {
	var n Notifier = Noop{}
	if err := n.Notify(context.Background(), Notification{}); err != nil {
		t.Fatalf("Noop returned %v", err)
	}
}
