package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoosocial/internal/utils"
)

func TestDeriveTopics(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{"Intro to Go Concurrency", []string{"intro", "concurrency"}},
		{"Channels, channels & more CHANNELS", []string{"channels", "more"}},
		{"Go in 5", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTopics(tt.title))
		})
	}
}

func TestCreateModule(t *testing.T) {
	w := newWorld()
	ctx := context.Background()

	m, err := w.Modules.Create(ctx, CreateModuleInput{Title: "Writing Fast Parsers", ContentType: "video"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, []string{"writing", "fast", "parsers"}, []string(m.Topics))

	got, err := w.Modules.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Title, got.Title)

	explicit, err := w.Modules.Create(ctx, CreateModuleInput{Title: "Anything", ContentType: "quiz", Topics: []string{"Go", "go", " sql "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, []string(explicit.Topics))

	_, err = w.Modules.Create(ctx, CreateModuleInput{Title: "  ", ContentType: "video"})
	assert.Equal(t, utils.CodeInvalidArgument, utils.CodeOf(err))

	_, err = w.Modules.Get(ctx, "missing")
	assert.Equal(t, utils.CodeNotFound, utils.CodeOf(err))
}
