package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

type named string

func (n named) Name() string { return string(n) }

func (n named) Scan(context.Context, Request) ([]domain.RawItem, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(named("feed"), named("arxiv"))

	s, err := reg.Resolve("feed")
	require.NoError(t, err)
	assert.Equal(t, "feed", s.Name())

	_, err = reg.Resolve("ieee")
	require.Error(t, err)

	assert.Equal(t, []string{"arxiv", "feed"}, reg.Names())

	var zero Registry
	zero.Register(named("late"))
	_, err = zero.Resolve("late")
	require.NoError(t, err)
}
