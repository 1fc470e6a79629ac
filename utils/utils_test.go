package utils

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDedupeIDs(t *testing.T) {
	got := DedupeIDs([]uint{3, 1, 3, 2, 1})
	want := []uint{3, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DedupeIDs() = %v, want %v", got, want)
	}
	if got := DedupeIDs(nil); len(got) != 0 {
		t.Errorf("DedupeIDs(nil) = %v, want empty", got)
	}
}

func TestSanitizeLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Hello  ", want: "Hello"},
		{in: "<script>alert(1)</script>Title", want: "Title"},
		{in: "<b>bold</b>", want: "bold"},
		{in: "Tom & Jerry", want: "Tom & Jerry"},
		{in: "O'Brien", want: "O'Brien"},
	}
	for _, tt := range tests {
		if got := SanitizeLine(tt.in); got != tt.want {
			t.Errorf("SanitizeLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "pw") {
		t.Error("CheckPassword() rejected correct password")
	}
	if CheckPassword(hash, "nope") {
		t.Error("CheckPassword() accepted wrong password")
	}
}

func TestCache_DisabledIsAlwaysEmpty(t *testing.T) {
	ctx := context.Background()
	for name, c := range map[string]*Cache{"nil": nil, "no client": NewCache(nil, time.Minute)} {
		t.Run(name, func(t *testing.T) {
			c.SetJSON(ctx, "k", map[string]int{"a": 1})
			var out map[string]int
			if c.GetJSON(ctx, "k", &out) {
				t.Error("GetJSON() hit on a disabled cache")
			}
			c.InvalidatePrefix(ctx, "k")
		})
	}
}

func TestCache_RoundTripAndInvalidatePrefix(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()
	c := NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	ctx := context.Background()

	c.SetJSON(ctx, "list:a", map[string]int{"a": 1})
	c.SetJSON(ctx, "list:b", map[string]int{"b": 2})
	c.SetJSON(ctx, "detail:1", map[string]int{"d": 3})

	var out map[string]int
	if !c.GetJSON(ctx, "list:a", &out) || out["a"] != 1 {
		t.Fatalf("GetJSON(list:a) = %v", out)
	}
	if ttl := mr.TTL("list:a"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	c.InvalidatePrefix(ctx, "list:")
	if c.GetJSON(ctx, "list:a", &out) || c.GetJSON(ctx, "list:b", &out) {
		t.Error("list keys survived InvalidatePrefix")
	}
	if !c.GetJSON(ctx, "detail:1", &out) {
		t.Error("InvalidatePrefix removed an unrelated key")
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := NewServer(ln.Addr().String(), handler, time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRecoveryWithZap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(Ginzap(logger, time.RFC3339, true), RecoveryWithZap(logger, false))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if logs.FilterMessage("[Recovery from panic]").Len() != 1 {
		t.Error("panic was not logged")
	}
	if logs.FilterMessage("/boom").Len() != 1 {
		t.Error("access line was not logged")
	}
}
