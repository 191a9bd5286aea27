package persist

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/stickies/internal/api"
	"github.com/starford/stickies/internal/apperr"
	"github.com/starford/stickies/internal/kvstore"
	"github.com/starford/stickies/internal/models"
	"github.com/starford/stickies/internal/sse"
	"github.com/starford/stickies/internal/testutil"
)

const (
	testAuthKey  = "sticky-api-startpoint"
	testNotesKey = "sticky-notes"
)

type server struct {
	url    string
	kv     *kvstore.SQLite
	broker *sse.Broker
}

func testServer(t *testing.T, token string) server {
	t.Helper()
	kv := testutil.TestKV(t)
	broker := sse.NewBroker(time.Minute)
	t.Cleanup(broker.Close)
	svc := api.NewService(kv, broker, testNotesKey, quietLogger())
	ts := httptest.NewServer(api.NewRouter(svc, token != "", token, broker))
	t.Cleanup(ts.Close)
	return server{url: ts.URL, kv: kv, broker: broker}
}

func TestHTTPLoadMissingIsEmpty(t *testing.T) {
	srv := testServer(t, "")
	h := NewHTTP(srv.url, testAuthKey, WithHTTPLogger(quietLogger()))

	notes, err := h.Load(context.Background(), testNotesKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if notes == nil || len(notes) != 0 {
		t.Errorf("notes = %#v, want empty", notes)
	}
}

func TestHTTPCommitLoadRoundTrip(t *testing.T) {
	srv := testServer(t, "tok")
	h := NewHTTP(srv.url, testAuthKey, WithToken("tok"), WithTimeout(5*time.Second), WithHTTPLogger(quietLogger()))
	ctx := context.Background()

	in := []models.Note{models.NewNote("a"), models.NewNote("b")}
	in[0].Text = "hello"
	in[0].Severity = models.SeverityWarning
	if err := h.Commit(ctx, testNotesKey, in); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	out, err := h.Load(ctx, testNotesKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 2 || out[0].Text != "hello" || out[0].Severity != models.SeverityWarning {
		t.Errorf("round trip = %+v", out)
	}
}

func TestHTTPUnauthorized(t *testing.T) {
	srv := testServer(t, "tok")
	h := NewHTTP(srv.url, testAuthKey, WithHTTPLogger(quietLogger()))
	if _, err := h.Load(context.Background(), testNotesKey); err == nil {
		t.Error("expected error without token")
	}
	if err := h.Commit(context.Background(), testNotesKey, nil); err == nil {
		t.Error("expected commit error without token")
	}
}

func TestHTTPCommitRejectedByServer(t *testing.T) {
	srv := testServer(t, "")
	h := NewHTTP(srv.url, testAuthKey, WithHTTPLogger(quietLogger()))
	bad := []models.Note{{ID: "a", Severity: "purple"}}
	if err := h.Commit(context.Background(), testNotesKey, bad); err == nil {
		t.Error("expected server-side validation error")
	}
}

func TestHTTPLoadUnparseable(t *testing.T) {
	srv := testServer(t, "")
	if err := srv.kv.Set(context.Background(), testAuthKey, "legacy", []byte(`{"id":"a"}`)); err != nil {
		t.Fatal(err)
	}
	h := NewHTTP(srv.url, testAuthKey, WithHTTPLogger(quietLogger()))
	_, err := h.Load(context.Background(), "legacy")
	if !errors.Is(err, apperr.ErrUnparseable) {
		t.Errorf("err = %v, want ErrUnparseable", err)
	}
}

func TestHTTPLoadUnreachable(t *testing.T) {
	h := NewHTTP("http://127.0.0.1:1", testAuthKey, WithTimeout(time.Second), WithHTTPLogger(quietLogger()))
	if _, err := h.Load(context.Background(), testNotesKey); err == nil {
		t.Error("expected error for unreachable endpoint")
	}
}

func TestHTTPWatchReportsOtherWriters(t *testing.T) {
	srv := testServer(t, "")
	mine := NewHTTP(srv.url, testAuthKey, WithHTTPLogger(quietLogger()))
	theirs := NewHTTP(srv.url, testAuthKey, WithHTTPLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		_ = mine.Watch(ctx, testNotesKey, func() { calls.Add(1) })
		close(done)
	}()
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return srv.broker.ClientCount() == 1
	}, "watcher never subscribed")

	// Own writes and other keys are ignored.
	if err := mine.Commit(ctx, testNotesKey, []models.Note{models.NewNote("a")}); err != nil {
		t.Fatal(err)
	}
	if err := theirs.Commit(ctx, "elsewhere", []models.Note{}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Fatalf("onChange called %d times before an external write", n)
	}

	if err := theirs.Commit(ctx, testNotesKey, []models.Note{models.NewNote("b")}); err != nil {
		t.Fatal(err)
	}
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return calls.Load() == 1
	}, "external write not reported")

	cancel()
	<-done
}

func TestHTTPFailedCommitKeepsLastSum(t *testing.T) {
	srv := testServer(t, "")
	h := NewHTTP(srv.url, testAuthKey, WithHTTPLogger(quietLogger()))
	ctx := context.Background()

	if err := h.Commit(ctx, testNotesKey, []models.Note{models.NewNote("a")}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	before := h.lastSums[testNotesKey]

	bad := []models.Note{{ID: "a", Severity: "purple"}}
	if err := h.Commit(ctx, testNotesKey, bad); err == nil {
		t.Fatal("expected server-side validation error")
	}
	if got := h.lastSums[testNotesKey]; got != before {
		t.Errorf("last sum = %q after failed commit, want %q", got, before)
	}
}
