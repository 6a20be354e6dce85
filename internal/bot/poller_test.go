package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// scriptedSource returns batches in order, then cancels polling.
type scriptedSource struct {
	mu      sync.Mutex
	batches [][]tgbotapi.Update
	offsets []int
	cancel  context.CancelFunc
}

func (s *scriptedSource) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, cfg.Offset)
	if len(s.batches) == 0 {
		s.cancel()
		return nil, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func TestPoll_TracksOffset(t *testing.T) {
	f := newTestProcessor(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{cancel: cancel, batches: [][]tgbotapi.Update{
		{commandUpdate(5, 50, "/echo a"), commandUpdate(6, 51, "/echo b")},
		// A redelivered update below the offset is skipped
		{commandUpdate(6, 51, "/echo b"), commandUpdate(7, 52, "/echo c")},
	}}

	if err := f.p.Poll(ctx, src, 1); err != nil {
		t.Fatalf("Poll returned %v", err)
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := f.p.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	want := []int{0, 7, 8}
	if len(src.offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", src.offsets, want)
	}
	for i := range want {
		if src.offsets[i] != want[i] {
			t.Errorf("offsets = %v, want %v", src.offsets, want)
			break
		}
	}
	if got := len(f.api.texts()); got != 3 {
		t.Errorf("Expected 3 replies, got %d", got)
	}
}

type failingSource struct{ calls int }

func (s *failingSource) GetUpdates(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	s.calls++
	return nil, errors.New("connection reset")
}

func TestPoll_StopsDuringRetryDelay(t *testing.T) {
	f := newTestProcessor(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	src := &failingSource{}
	start := time.Now()
	if err := f.p.Poll(ctx, src, 1); err != nil {
		t.Fatalf("Poll returned %v", err)
	}
	if elapsed := time.Since(start); elapsed >= pollRetryDelay {
		t.Errorf("Poll should stop on cancellation, took %v", elapsed)
	}
	if src.calls != 1 {
		t.Errorf("Expected a single attempt, got %d", src.calls)
	}
}

type fakeWebhookAPI struct {
	endpoint string
	params   tgbotapi.Params
	resp     *tgbotapi.APIResponse
	deleted  bool
}

func (f *fakeWebhookAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.endpoint, f.params = endpoint, params
	return f.resp, nil
}

func (f *fakeWebhookAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if _, ok := c.(tgbotapi.DeleteWebhookConfig); ok {
		f.deleted = true
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestRegisterWebhook(t *testing.T) {
	api := &fakeWebhookAPI{resp: &tgbotapi.APIResponse{Ok: true}}
	if err := RegisterWebhook(api, "https://jobs.example.com/telegram/webhook", "s3cret"); err != nil {
		t.Fatalf("RegisterWebhook failed: %v", err)
	}
	if api.endpoint != "setWebhook" {
		t.Errorf("Expected setWebhook, got %q", api.endpoint)
	}
	if api.params["url"] != "https://jobs.example.com/telegram/webhook" || api.params["secret_token"] != "s3cret" {
		t.Errorf("Unexpected params: %v", api.params)
	}
	if api.params["allowed_updates"] != `["message","callback_query"]` {
		t.Errorf("Unexpected allowed_updates: %q", api.params["allowed_updates"])
	}

	api = &fakeWebhookAPI{resp: &tgbotapi.APIResponse{Ok: true}}
	if err := RegisterWebhook(api, "https://jobs.example.com/hook", ""); err != nil {
		t.Fatalf("RegisterWebhook failed: %v", err)
	}
	if _, ok := api.params["secret_token"]; ok {
		t.Error("Empty secret must not be sent")
	}

	api = &fakeWebhookAPI{resp: &tgbotapi.APIResponse{Ok: false, Description: "bad webhook: HTTPS url must be provided"}}
	if err := RegisterWebhook(api, "http://insecure", ""); err == nil {
		t.Error("Expected a rejected webhook to fail")
	}
}

func TestDeleteWebhook(t *testing.T) {
	api := &fakeWebhookAPI{}
	if err := DeleteWebhook(api); err != nil {
		t.Fatalf("DeleteWebhook failed: %v", err)
	}
	if !api.deleted {
		t.Error("Expected deleteWebhook to be requested")
	}
}
