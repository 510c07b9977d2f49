package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/stretchr/testify/require"
)

type StringAttr struct {
	Key   string
	Value string
}

func TestRequestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, request *http.Request) []StringAttr {
		t.Helper()

		buf := &bytes.Buffer{}
		middleware := logging.NewRequestLoggerMiddleware(slog.New(slog.NewJSONHandler(buf, nil)))

		handler := middleware(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("test")
		})

		handler(httptest.NewRecorder(), request)

		var logEntry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

		attrs := make([]StringAttr, 0)
		foundBase := 0
		for key, value := range logEntry {
			switch key {
			case "msg":
				require.Equal(t, "test", value)
				foundBase++
			case "level":
				require.Equal(t, "INFO", value)
				foundBase++
			case "time":
				foundBase++
			default:
				attrs = append(attrs, StringAttr{Key: key, Value: value.(string)})
			}
		}
		require.Equal(t, 3, foundBase)

		return attrs
	}

	t.Run("all props", func(t *testing.T) {
		t.Parallel()

		request := httptest.NewRequest(http.MethodGet, "http://example.com/v1/session", nil)
		request.Header.Set("X-Overlay-Client", "obs-browser-source")
		request.Header.Set("User-Agent", "obs/30.0")

		require.ElementsMatch(t, []StringAttr{
			{Key: "clientID", Value: "obs-browser-source"},
			{Key: "userAgent", Value: "obs/30.0"},
			{Key: "methodPath", Value: "GET /v1/session"},
		}, run(t, request))
	})

	t.Run("missing props", func(t *testing.T) {
		t.Parallel()

		request := httptest.NewRequest(http.MethodPost, "http://example.com/v1/character/name/someone", nil)
		request.Header.Del("User-Agent")

		require.ElementsMatch(t, []StringAttr{
			{Key: "clientID", Value: "<missing>"},
			{Key: "userAgent", Value: "<missing>"},
			{Key: "methodPath", Value: "POST /v1/character/name/someone"},
		}, run(t, request))
	})
}
