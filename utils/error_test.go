package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"capturemoments/services/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.NotFound("booking %s", "b1"), http.StatusNotFound},
		{errs.Conflict("b1"), http.StatusConflict},
		{errs.InvalidInterval("empty"), http.StatusBadRequest},
		{errs.StaleQuote("old"), http.StatusConflict},
		{errs.Unavailable("mongo", errors.New("timeout")), http.StatusServiceUnavailable},
		{errs.ErrSlotStoreBusy, http.StatusServiceUnavailable},
		{errs.InvalidState("cancelled"), http.StatusConflict},
		{errs.InvalidInput("rating"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", errs.NotFound("x")), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Errorf("%v: got %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRespondErrorHidesDependencyCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Logger = zap.NewNop()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(c, errs.Unavailable("booking store", errors.New("mongodb://user:secret@db")))

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusServiceUnavailable || body.Message != "booking store unavailable" || body.Details != "" {
		t.Fatalf("got %d %+v", w.Code, body)
	}
}
