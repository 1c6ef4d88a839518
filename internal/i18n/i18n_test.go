package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, langs ...string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loc := NewLocalizer(langs...)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "LoginError")
	if got != "Invalid email or password" {
		t.Errorf("T(LoginError) = %q", got)
	}

	got = T(ctx, "ExamClosed")
	if got != "This exam is not currently open" {
		t.Errorf("T(ExamClosed) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "LoginError")
	if got != "Неверный адрес электронной почты или пароль" {
		t.Errorf("T(LoginError) = %q", got)
	}
}

func TestMissingMessageReturnsID(t *testing.T) {
	ctx := initLang(t, "en")
	if got := T(ctx, "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("expected message ID fallback, got %q", got)
	}
}

func TestMiddlewareUsesAcceptLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "ExamClosed")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "Этот экзамен сейчас закрыт" {
		t.Errorf("expected russian translation, got %q", got)
	}
}
