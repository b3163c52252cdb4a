package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", LocaleEnglish},
		{"plain spanish", "es", LocaleSpanish},
		{"regional spanish", "es-MX,es;q=0.9", LocaleSpanish},
		{"english preferred", "en-US,en;q=0.9,es;q=0.8", LocaleEnglish},
		{"spanish by quality", "en;q=0.3,es;q=0.7", LocaleSpanish},
		{"unsupported falls through", "de-DE,fr;q=0.9,es;q=0.5", LocaleSpanish},
		{"nothing supported", "de-DE,fr", DefaultLocale},
		{"zero quality ignored", "es;q=0,en;q=0.1", LocaleEnglish},
		{"wildcard", "*", DefaultLocale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAcceptLanguage(tt.header))
		})
	}
}

func TestLocalizer_T(t *testing.T) {
	assert.Equal(t, "no file provided", TWithLocale(LocaleEnglish, "errors.no_file"))
	assert.Equal(t, "no se proporcionó ningún archivo", TWithLocale(LocaleSpanish, "errors.no_file"))

	// Unknown locales use the default catalog
	assert.Equal(t, "no file provided", TWithLocale("de", "errors.no_file"))

	// Missing keys return the key itself
	assert.Equal(t, "errors.does_not_exist", T("errors.does_not_exist"))
}

func TestLocalizer_TParams(t *testing.T) {
	got := T("errors.not_found", map[string]string{"resource": "Extraction job"})
	assert.Equal(t, "Extraction job not found", got)
}

func TestTFromContext(t *testing.T) {
	ctx := WithLocale(context.Background(), LocaleSpanish)
	assert.Equal(t, "error interno del servidor", TFromContext(ctx, "errors.internal"))

	assert.Equal(t, "internal server error", TFromContext(context.Background(), "errors.internal"))
}

func TestMiddleware(t *testing.T) {
	var got string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "es-MX")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, LocaleSpanish, got)
	assert.Equal(t, LocaleSpanish, rec.Header().Get("Content-Language"))
}
