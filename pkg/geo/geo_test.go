package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"CD_MUN": "3205309", "NM_MUN": "Vitória"},
     "geometry": {"type": "Point", "coordinates": [-40.3, -20.3]}},
    {"type": "Feature", "properties": {"CD_MUN": 320130, "NM_MUN": "Cariacica"},
     "geometry": {"type": "Point", "coordinates": [-40.4, -20.2]}},
    {"type": "Feature", "properties": {"CD_MUN": "3299999", "NM_MUN": "Outro"},
     "geometry": {"type": "Point", "coordinates": [-40.0, -20.0]}}
  ]
}`

func writeGeo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "es.geojson")
	require.NoError(t, os.WriteFile(path, []byte(testGeoJSON), 0o600))
	return path
}

func TestCodePrefix(t *testing.T) {
	assert.Equal(t, "320530", CodePrefix("3205309"))
	assert.Equal(t, "320530", CodePrefix("320530"))
	assert.Equal(t, "320130", CodePrefix("3201308.0"))
	assert.Equal(t, "", CodePrefix("123"))
	assert.Equal(t, "", CodePrefix(""))
}

func TestLoad_File(t *testing.T) {
	fc, err := Load(context.Background(), writeGeo(t))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
}

func TestLoad_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testGeoJSON))
	}))
	defer srv.Close()

	fc, err := Load(context.Background(), srv.URL+"/es.geojson")
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), "")
	assert.Error(t, err)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.geojson")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = Load(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestJoin(t *testing.T) {
	fc, err := Load(context.Background(), writeGeo(t))
	require.NoError(t, err)

	munis := []*dataset.Municipality{
		{Name: "Vitória", Code: "3205309", Funding: 1500, Approval: 85, Quality: 6},
		{Name: "Cariacica", Code: "3201308", Funding: 2500, Approval: 70, Quality: 5},
		{Name: "Sem Código", Funding: 1, Approval: 1, Quality: 1},
	}

	joined, matched := Join(fc, munis, "")
	assert.Equal(t, 2, matched)
	require.Len(t, joined.Features, 3)

	v := joined.Features[0].Properties
	assert.Equal(t, true, v[PropMatched])
	assert.Equal(t, "Vitória", v[PropName])
	assert.Equal(t, 1500.0, v[PropFunding])

	c := joined.Features[1].Properties
	assert.Equal(t, "Cariacica", c[PropName])

	o := joined.Features[2].Properties
	assert.Equal(t, false, o[PropMatched])
	assert.NotContains(t, o, PropFunding)

	_, touched := fc.Features[0].Properties[PropMatched]
	assert.False(t, touched)
}

func TestJoin_Nil(t *testing.T) {
	joined, matched := Join(nil, nil, "")
	assert.Equal(t, 0, matched)
	assert.Empty(t, joined.Features)
}
