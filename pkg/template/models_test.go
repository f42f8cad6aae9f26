package template

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
)

func TestPointsKeepOrder(t *testing.T) {
	var pts Points
	pts.Set("zeta", NewPoint(1, 1))
	pts.Set("alpha", NewPoint(2, 2))
	pts.Set("mid", NewPoint(3, 3))
	pts.Set("zeta", NewPoint(9, 9))

	if got, want := pts.Names(), []string{"zeta", "alpha", "mid"}; !slices.Equal(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	if p, _ := pts.Get("zeta"); p.X != 9 {
		t.Errorf("zeta.X = %d, want 9 (last write wins)", p.X)
	}

	data, err := json.Marshal(pts)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !(strings.Index(s, `"zeta"`) < strings.Index(s, `"alpha"`) && strings.Index(s, `"alpha"`) < strings.Index(s, `"mid"`)) {
		t.Errorf("key order lost in %s", s)
	}
}

func TestPointsUnmarshal(t *testing.T) {
	doc := `{"name":{"x":10,"y":10,"font_size":20},"date":{"x":5,"y":7,"font_color":"#ff0000","font_style":"Go Bold","opacity":50}}`

	var pts Points
	if err := json.Unmarshal([]byte(doc), &pts); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := pts.Names(); !slices.Equal(got, []string{"name", "date"}) {
		t.Fatalf("Names() = %v", got)
	}

	name, _ := pts.Get("name")
	if name.FontSize == nil || *name.FontSize != 20 || name.FontColor != nil {
		t.Errorf("name fields = %+v", name.FontFields)
	}
	date, _ := pts.Get("date")
	if date.X != 5 || date.Y != 7 || *date.FontStyle != "Go Bold" || *date.Opacity != 50 {
		t.Errorf("date = %+v", date)
	}
}

func TestPointsUnmarshalRejects(t *testing.T) {
	for _, doc := range []string{`[]`, `"x"`, `{"a":{"x":"one"}}`, `{"a":{"font_color":[0,0,0]}}`} {
		var pts Points
		if err := json.Unmarshal([]byte(doc), &pts); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", doc)
		}
	}
}

func TestPointsCloneIsDeep(t *testing.T) {
	var pts Points
	pts.Set("a", NewPoint(1, 2))
	cp := pts.Clone()

	p, _ := cp.Get("a")
	*p.FontSize = 99

	orig, _ := pts.Get("a")
	if *orig.FontSize != DefaultFontSize {
		t.Errorf("clone shares font size with the original")
	}
}

func TestTextMappingNormalize(t *testing.T) {
	m := TextMapping{{"a", "1"}, {"b", "2"}, {"a", "3"}}
	got := m.Normalize()
	want := TextMapping{{"a", "3"}, {"b", "2"}}
	if !slices.Equal(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestResolveStylePrecedence(t *testing.T) {
	var p Point
	p.FontFields = FontFields{}.WithSize(20).WithColor("blue")
	defaults := Style{Size: 15, Color: "black", Font: "default", Opacity: 100}

	tests := []struct {
		name     string
		point    Point
		override FontFields
		want     Style
	}{
		{"override wins", p, FontFields{}.WithSize(30), Style{30, "blue", "default", 100}},
		{"template over default", p, FontFields{}, Style{20, "blue", "default", 100}},
		{"defaults only", Point{}, FontFields{}, defaults},
		{"per field", p, FontFields{}.WithOpacity(40).WithStyle("Go Mono"), Style{20, "blue", "Go Mono", 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveStyle(tt.point, tt.override, defaults); got != tt.want {
				t.Errorf("ResolveStyle() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTextMappingUnmarshal(t *testing.T) {
	want := TextMapping{{"name", "Alice"}, {"date", "2024"}}
	for _, doc := range []string{
		`{"name":"Alice","date":"2024"}`,
		`[{"point":"name","text":"Bob"},{"point":"date","text":"2024"},{"point":"name","text":"Alice"}]`,
	} {
		var m TextMapping
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			t.Fatalf("Unmarshal(%s): %v", doc, err)
		}
		if !slices.Equal(m, want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", doc, m, want)
		}
	}

	var m TextMapping
	if err := json.Unmarshal([]byte(`{"name": 3}`), &m); err == nil {
		t.Error("non-string text accepted")
	}
}
