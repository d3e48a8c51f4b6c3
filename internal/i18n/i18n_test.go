package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "AI Evaluation Platform" {
		t.Errorf("T(AppTitle) = %q, want 'AI Evaluation Platform'", got)
	}

	got = T(ctx, "LoginError")
	if got != "Incorrect access code. Please try again." {
		t.Errorf("T(LoginError) = %q", got)
	}
}

func TestTranslateFrench(t *testing.T) {
	ctx := initLang(t, "fr")

	got := T(ctx, "AppTitle")
	if got != "Plateforme d'Évaluation IA" {
		t.Errorf("T(AppTitle) = %q, want 'Plateforme d'Évaluation IA'", got)
	}

	got = T(ctx, "LoginError")
	if got != "Code d'accès incorrect. Veuillez réessayer." {
		t.Errorf("T(LoginError) = %q", got)
	}
}

func TestTranslateWithData(t *testing.T) {
	ctx := initLang(t, "fr")

	got := Td(ctx, "ExamQuestions", map[string]any{"Count": 5})
	if got != "Examen de 5 questions" {
		t.Errorf("Td(ExamQuestions) = %q", got)
	}
}

func TestMissingTranslationFallsBackToID(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NoSuchMessage")
	if got != "NoSuchMessage" {
		t.Errorf("T(NoSuchMessage) = %q, want the message id back", got)
	}
}

func TestMiddlewareHonorsAcceptLanguage(t *testing.T) {
	if err := Init("fr"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("fr")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "AppTitle")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "AI Evaluation Platform" {
		t.Errorf("english client got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Plateforme d'Évaluation IA" {
		t.Errorf("default language got %q", got)
	}
}
