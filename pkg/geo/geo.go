// Package geo joins municipality indicators to municipal boundary features.
package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/mchmarny/edupulse/pkg/net"
	"github.com/paulmach/orb/geojson"
)

const (
	// CodePropertyDefault is the IBGE municipality code property in boundary files.
	CodePropertyDefault = "CD_MUN"

	codePrefixLen = 6

	PropFunding  = "repasse"
	PropApproval = "aprovacao"
	PropQuality  = "ideb"
	PropName     = "municipio"
	PropMatched  = "matched"
)

var ErrInvalidGeometry = errors.New("invalid geometry")

// Load reads a GeoJSON FeatureCollection from a local file or an http(s) URL.
func Load(ctx context.Context, src string) (*geojson.FeatureCollection, error) {
	if src == "" {
		return nil, errors.New("geometry source not specified")
	}

	path := src
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		dir, err := os.MkdirTemp("", "edupulse-geo-")
		if err != nil {
			return nil, fmt.Errorf("error creating temp dir: %w", err)
		}
		defer os.RemoveAll(dir)

		path = filepath.Join(dir, "boundaries.geojson")
		slog.Debug("downloading geometry", "url", src)
		if err := net.Download(ctx, src, path); err != nil {
			return nil, fmt.Errorf("error downloading geometry: %s: %w", src, err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading geometry: %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidGeometry, src, err)
	}

	slog.Debug("geometry loaded", "source", src, "features", len(fc.Features))
	return fc, nil
}

// CodePrefix returns the first six digits of a municipality code.
// IBGE codes carry a trailing check digit that some sources omit.
func CodePrefix(code string) string {
	code = strings.TrimSpace(code)
	if f, err := strconv.ParseFloat(code, 64); err == nil && f == math.Trunc(f) {
		code = strconv.FormatInt(int64(f), 10)
	}
	if len(code) < codePrefixLen {
		return ""
	}
	return code[:codePrefixLen]
}

func propertyString(p geojson.Properties, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Join returns a copy of fc where each feature carries the indicators of the
// municipality whose code shares its 6-digit prefix. Unmatched features keep
// their geometry and get matched=false. The input collection is not modified.
func Join(fc *geojson.FeatureCollection, munis []*dataset.Municipality, codeProperty string) (*geojson.FeatureCollection, int) {
	if codeProperty == "" {
		codeProperty = CodePropertyDefault
	}

	byCode := make(map[string]*dataset.Municipality, len(munis))
	for _, m := range munis {
		p := CodePrefix(m.Code)
		if p == "" {
			continue
		}
		if _, dup := byCode[p]; !dup {
			byCode[p] = m
		}
	}

	out := geojson.NewFeatureCollection()
	if fc == nil {
		return out, 0
	}

	matched := 0
	for _, f := range fc.Features {
		nf := geojson.NewFeature(f.Geometry)
		nf.ID = f.ID
		nf.Properties = make(geojson.Properties, len(f.Properties)+5)
		maps.Copy(nf.Properties, f.Properties)

		m, ok := byCode[CodePrefix(propertyString(f.Properties, codeProperty))]
		nf.Properties[PropMatched] = ok
		if ok {
			matched++
			nf.Properties[PropName] = m.Name
			setNumber(nf.Properties, PropFunding, m.Funding)
			setNumber(nf.Properties, PropApproval, m.Approval)
			setNumber(nf.Properties, PropQuality, m.Quality)
		}
		out.Append(nf)
	}

	return out, matched
}

func setNumber(p geojson.Properties, key string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p[key] = nil
		return
	}
	p[key] = v
}
