package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bigspin/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code string
		want int
	}{
		{models.CodeNotFound, http.StatusNotFound},
		{models.CodeInvalidTransition, http.StatusConflict},
		{models.CodeAlreadyResolved, http.StatusConflict},
		{models.CodeWinnerAlreadyPicked, http.StatusConflict},
		{models.CodeDuplicateEntry, http.StatusConflict},
		{models.CodeEntryLimitReached, http.StatusConflict},
		{models.CodeValidation, http.StatusBadRequest},
		{models.CodeInvalidWinner, http.StatusBadRequest},
		{models.CodeQueueEmpty, http.StatusBadRequest},
		{models.CodeNoEntries, http.StatusBadRequest},
		{models.CodeNotEnded, http.StatusBadRequest},
		{models.CodeRequirementNotMet, http.StatusForbidden},
		{models.CodeForbidden, http.StatusForbidden},
		{models.CodeEventEnded, http.StatusGone},
		{models.CodeUnauthorized, http.StatusUnauthorized},
		{models.CodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForCode(tt.code), tt.code)
	}
}

func TestParsePagination(t *testing.T) {
	t.Parallel()
	app := fiber.New()

	var got Pagination
	app.Get("/items", func(c *fiber.Ctx) error {
		got = parsePagination(c, 20)
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"Defaults", "", 20, 0},
		{"Explicit", "?limit=5&offset=10", 5, 10},
		{"ClampedLimit", "?limit=5000", 100, 0},
		{"NegativeValues", "?limit=-1&offset=-5", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}
