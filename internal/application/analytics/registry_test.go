package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ClavesSinDistinguirMayusculas(t *testing.T) {
	r := DefaultRegistry()

	d, ok := r.Get("  FORM-Scoring ")
	require.True(t, ok)
	assert.Equal(t, "form-scoring", d.Key)
	assert.Equal(t, 12, d.Layout.Columns)

	_, ok = r.Get("ventas")
	assert.False(t, ok)

	w, owner, ok := r.FindWidget("ORG-USER-COUNT")
	require.True(t, ok)
	assert.Equal(t, "org-user-count", w.Key)
	assert.Equal(t, "organization-overview", owner.Key)
}

func TestRegistry_RegisterReemplazaSinDuplicar(t *testing.T) {
	r := NewRegistry(
		Dashboard{Key: "a", Title: "Uno", Layout: Layout{Columns: 6}},
		Dashboard{Key: "b", Title: "Dos"},
	)
	r.Register(Dashboard{Key: "A", Title: "Uno bis"})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Uno bis", all[0].Title)
	assert.Equal(t, defaultLayout, all[0].Layout)
	assert.Equal(t, defaultLayout, all[1].Layout)
}

func TestWidgetColSpan(t *testing.T) {
	cases := map[string]int{SizeSmall: 3, SizeMedium: 4, SizeLarge: 6, SizeFull: 12, "": 4}
	for size, want := range cases {
		assert.Equal(t, want, Widget{Size: size}.ColSpan(), size)
	}
}

func TestDefaultRegistry_WidgetsConProveedor(t *testing.T) {
	providers := []Provider{&FormProvider{}, &ScoringProvider{}, &OrganizationProvider{}}
	for _, d := range DefaultRegistry().All() {
		for _, w := range d.Widgets {
			handled := false
			for _, p := range providers {
				handled = handled || canHandle(p, w.Key)
			}
			assert.True(t, handled, "widget %s sin proveedor", w.Key)
		}
	}
}
