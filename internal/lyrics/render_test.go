package lyrics

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rap-order-service/internal/apperr"
)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

func TestDefaultCatalogKeys(t *testing.T) {
	c := mustCatalog(t)
	assert.Equal(t, []string{"funny-birthday", "funny-roast", "success-anthem", "love-song"}, c.Keys())

	tpl, ok := c.Template("success-anthem")
	require.True(t, ok)
	assert.Equal(t, "success", tpl.Style)
	assert.Equal(t, "2 minutes", tpl.DeliveryTime)
	assert.Equal(t, float64(20), tpl.Price)
}

func TestRender_FunnyBirthdayExample(t *testing.T) {
	c := mustCatalog(t)

	out, err := c.Render("funny-birthday", map[string]string{"name": "Jake", "age": "30"})
	require.NoError(t, err)

	assert.Contains(t, out, "Happy birthday to Jake, let me tell you what I see")
	assert.Contains(t, out, "30 years old but still acts so free")
	assert.Contains(t, out, "being awesome, that's your claim to fame")
	assert.Contains(t, out, "making us smile, driving us insane")
	assert.Equal(t, 3, strings.Count(out, "Jake"))
}

func TestRender_BlankFieldsUseDefaults(t *testing.T) {
	c := mustCatalog(t)

	out, err := c.Render("love-song", map[string]string{"name": "   ", "loveTrait1": ""})
	require.NoError(t, err)

	assert.Contains(t, out, "Friend, you're my queen")
	assert.Contains(t, out, "your beautiful smile, for the world to see")
	assert.Contains(t, out, "your kind heart, every single day")
	assert.Contains(t, out, "our time together, making me whole")
}

func TestRender_NilFieldsUseDefaults(t *testing.T) {
	c := mustCatalog(t)

	for _, key := range c.Keys() {
		out, err := c.Render(key, nil)
		require.NoError(t, err, key)
		assert.NotRegexp(t, tokenPattern, out, key)
	}
}

func TestRender_NeverLeavesTokens(t *testing.T) {
	c := mustCatalog(t)
	r := rand.New(rand.NewSource(7))
	words := []string{"Jake", "Ana", "loud snoring", "Chicago", "first date", "42", "x", "émigré", "🎤"}

	for i := 0; i < 200; i++ {
		fields := make(map[string]string)
		for _, p := range c.Placeholders() {
			if r.Intn(3) == 0 {
				continue
			}
			fields[p.Field] = words[r.Intn(len(words))]
		}
		key := c.Keys()[r.Intn(len(c.Keys()))]

		out, err := c.Render(key, fields)
		require.NoError(t, err)
		assert.NotRegexp(t, tokenPattern, out, "iteration %d key %s", i, key)
	}
}

func TestRender_SinglePass(t *testing.T) {
	c := mustCatalog(t)

	out, err := c.Render("funny-roast", map[string]string{"name": "{FUNNY_TRAIT_1}", "funnyTrait1": "sleeps in"})
	require.NoError(t, err)

	assert.Contains(t, out, "my friend {FUNNY_TRAIT_1}")
	assert.Contains(t, out, "sleeps in, that's their claim to fame")
}

func TestRender_Deterministic(t *testing.T) {
	c := mustCatalog(t)
	fields := map[string]string{"name": "Mia", "hometown": "Detroit", "achievement1": "shipped it"}

	first, err := c.Render("success-anthem", fields)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Render("success-anthem", fields)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	c := mustCatalog(t)

	out, err := c.Render("sad-ballad", map[string]string{"name": "Jake"})
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestLoadCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no templates",
			yaml:    "placeholders: []\ntemplates: []\n",
			wantErr: "no templates",
		},
		{
			name: "undeclared token",
			yaml: `placeholders:
  - {token: "{NAME}", field: name, default: Friend}
templates:
  - {key: a, body: "{NAME} and {AGE}"}
`,
			wantErr: "undeclared placeholder {AGE}",
		},
		{
			name: "duplicate key",
			yaml: `placeholders:
  - {token: "{NAME}", field: name, default: Friend}
templates:
  - {key: a, body: "{NAME}"}
  - {key: a, body: "{NAME}"}
`,
			wantErr: "declared twice",
		},
		{
			name: "missing default",
			yaml: `placeholders:
  - {token: "{NAME}", field: name}
templates:
  - {key: a, body: "{NAME}"}
`,
			wantErr: "default is required",
		},
		{
			name: "malformed token",
			yaml: `placeholders:
  - {token: "NAME", field: name, default: Friend}
templates:
  - {key: a, body: "hi"}
`,
			wantErr: "malformed token",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCatalog([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "", Excerpt("abc", 0))
	assert.Equal(t, "abc", Excerpt("abc", 500))
	assert.Equal(t, "ab", Excerpt("abc", 2))
	assert.Equal(t, "🎤é", Excerpt("🎤éx", 2))

	long := strings.Repeat("a", 800)
	assert.Len(t, Excerpt(long, 500), 500)
}

func ExampleCatalog_Render() {
	c, _ := DefaultCatalog()
	out, _ := c.Render("funny-birthday", map[string]string{"name": "Jake", "age": "30"})
	fmt.Println(strings.SplitN(out, "\n", 3)[1])
	// Output: Happy birthday to Jake, let me tell you what I see
}
