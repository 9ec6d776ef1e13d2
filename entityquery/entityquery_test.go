package entityquery_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/blocks/entityquery"
)

type task struct{}

func TestIncludeDeduplicates(t *testing.T) {
	q := entityquery.Query{}.Include("Tags", " Tags ", "", "Comments").Include("Tags")

	assert.Equal(t, []string{"Tags", "Comments"}, q.Includes())
	assert.Equal(t, 2, q.Len())
	assert.True(t, q.Has("Comments"))
	assert.False(t, q.Has("Attachments"))
}

func TestIncludeDoesNotMutateReceiver(t *testing.T) {
	base := entityquery.Query{}.Include("Tags")
	_ = base.Include("Comments")

	assert.Equal(t, []string{"Tags"}, base.Includes())
}

func TestConfigurationIsIdempotent(t *testing.T) {
	cfgs := map[string]entityquery.Configuration[task]{
		"relations": entityquery.Relations[task]("Tags", "Comments.Author"),
		"composed": entityquery.Compose[task](
			entityquery.Relations[task]("Tags"),
			entityquery.Relations[task]("Tags", "Attachments"),
			nil,
		),
		"none": entityquery.None[task](),
	}

	for name, cfg := range cfgs {
		t.Run(name, func(t *testing.T) {
			once := entityquery.Apply[task](cfg)
			twice := cfg.ConfigureAggregate(once)

			assert.True(t, once.Equal(twice))
			assert.Equal(t, once.Includes(), twice.Includes())
		})
	}
}

func TestApplyNil(t *testing.T) {
	assert.Equal(t, 0, entityquery.Apply[task](nil).Len())
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := entityquery.Query{}.Include("A", "B")
	b := entityquery.Query{}.Include("B", "A")
	c := entityquery.Query{}.Include("A")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestVerify(t *testing.T) {
	known := func(p string) bool { return p == "Tags" }

	require.NoError(t, entityquery.Verify(entityquery.Query{}.Include("Tags"), known))

	err := entityquery.Verify(entityquery.Query{}.Include("Tags", "Labels"), known)
	require.Error(t, err)
	assert.Equal(t, entityquery.CodeUnknownRelation, errx.AsErrorX(err).Code())
}
