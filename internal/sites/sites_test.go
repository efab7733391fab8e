package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_Lifecycle(t *testing.T) {
	t.Parallel()

	l := NewList()
	var changes int
	l.On(func() { changes++ })

	assert.False(t, l.Fetched())
	assert.Nil(t, l.SelectedSite())

	l.SetSites([]Site{{ID: 1, Slug: "one.example"}, {ID: 2, Slug: "two.example"}})
	assert.True(t, l.Fetched())
	assert.Len(t, l.Sites(), 2)
	assert.Equal(t, 1, changes)

	require.NoError(t, l.Select(2))
	require.NotNil(t, l.SelectedSite())
	assert.Equal(t, int64(2), l.SelectedSite().SiteID())
	assert.Equal(t, 2, changes)

	l.ClearSelection()
	assert.Nil(t, l.SelectedSite())
	assert.Equal(t, 3, changes)
}

func TestList_SelectUnknownSite(t *testing.T) {
	t.Parallel()

	l := NewList()
	l.SetSites([]Site{{ID: 1}})

	err := l.Select(99)
	assert.ErrorIs(t, err, ErrSiteNotFound)
	assert.Nil(t, l.SelectedSite())
}

func TestList_SetSitesDropsStaleSelection(t *testing.T) {
	t.Parallel()

	l := NewList()
	l.SetSites([]Site{{ID: 1}, {ID: 2}})
	require.NoError(t, l.Select(2))

	l.SetSites([]Site{{ID: 1}})
	assert.Nil(t, l.SelectedSite())

	require.NoError(t, l.Select(1))
	l.SetSites([]Site{{ID: 1, Slug: "renamed.example"}})
	require.NotNil(t, l.SelectedSite())
	assert.Equal(t, "renamed.example", l.SelectedSite().Slug)
}

func TestList_SelectedSiteIsACopy(t *testing.T) {
	t.Parallel()

	l := NewList()
	l.SetSites([]Site{{ID: 1, Slug: "one.example"}})
	require.NoError(t, l.Select(1))

	s := l.SelectedSite()
	s.Slug = "mutated"
	assert.Equal(t, "one.example", l.SelectedSite().Slug)
}
