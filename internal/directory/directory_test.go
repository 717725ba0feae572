package directory

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"coffee", "wifi", "cozy"}, ParseTags("Coffee, WiFi , cozy"))
	assert.Empty(t, ParseTags(""))
	assert.Equal(t, []string{"patio"}, ParseTags(",patio,,"))
}

func TestServiceCreateValidates(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Create(context.Background(), &Business{Name: "No Category"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	b, err := svc.Create(context.Background(), &Business{
		Name:         "Sugar & Twine",
		Category:     "bakery",
		Neighborhood: "Carytown",
		Address:      "2928 W Cary St",
		TagsCSV:      "pastries, coffee",
	})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestServiceCreateRejectsBadWebsite(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Create(context.Background(), &Business{
		Name:         "Bad Site",
		Category:     "retail",
		Neighborhood: "Fan",
		Address:      "1 Main St",
		Website:      "not-a-url",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	b := &Business{Name: "Lamplighter", Category: "coffee shop", Neighborhood: "Fan", Address: "116 S Addison St"}
	require.NoError(t, store.Create(ctx, b))
	require.NotZero(t, b.ID)

	got, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamplighter", got.Name)

	got.Description = "roaster and cafe"
	require.NoError(t, store.Update(ctx, got))

	again, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "roaster and cafe", again.Description)

	require.NoError(t, store.Delete(ctx, b.ID))
	_, err = store.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, b.ID), ErrNotFound)
}

func TestMemoryStoreListFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seed := []*Business{
		{Name: "Brewer's Cafe", Category: "coffee shop", Neighborhood: "Manchester", Address: "a"},
		{Name: "Stella's", Category: "restaurant", Neighborhood: "Museum District", Address: "b"},
		{Name: "Blanchard's", Category: "coffee shop", Neighborhood: "Fan", Address: "c"},
	}
	for _, b := range seed {
		require.NoError(t, store.Create(ctx, b))
	}

	coffee, err := store.List(ctx, ListOptions{Category: "coffee shop"})
	require.NoError(t, err)
	assert.Len(t, coffee, 2)

	fan, err := store.List(ctx, ListOptions{Category: "coffee shop", Neighborhood: "Fan"})
	require.NoError(t, err)
	require.Len(t, fan, 1)
	assert.Equal(t, "Blanchard's", fan[0].Name)

	search, err := store.List(ctx, ListOptions{Search: "stell"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Stella's", search[0].Name)

	byName, err := store.List(ctx, ListOptions{Sort: "name"})
	require.NoError(t, err)
	require.Len(t, byName, 3)
	assert.Equal(t, "Blanchard's", byName[0].Name)
	assert.Equal(t, "Brewer's Cafe", byName[1].Name)

	paged, err := store.List(ctx, ListOptions{Sort: "name", Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Brewer's Cafe", paged[0].Name)
}

func TestImportCSV(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	input := strings.Join([]string{
		"Name,Category,Neighborhood,Address,Tags",
		"Perly's,restaurant,Downtown,111 E Grace St,\"brunch, deli\"",
		",restaurant,Downtown,missing name,",
		"Roastery 821,coffee shop,Carytown,821 W Cary St,coffee",
	}, "\n")

	result, err := svc.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 3")

	n, err := svc.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportCSVRejectsUnknownHeader(t *testing.T) {
	svc := NewService(NewMemoryStore())
	_, err := svc.ImportCSV(context.Background(), strings.NewReader("foo,bar\n1,2\n"))
	require.Error(t, err)
}

func TestExportCSVRoundTrip(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, &Business{
		Name: "Can Can", Category: "restaurant", Neighborhood: "Carytown",
		Address: "3120 W Cary St", TagsCSV: "brunch, french",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,category,neighborhood,address,phone,website,description,tags", lines[0])
	assert.Contains(t, lines[1], "Can Can")

	fresh := NewService(NewMemoryStore())
	result, err := fresh.ImportCSV(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}
