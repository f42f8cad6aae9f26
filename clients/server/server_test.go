package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/xob0t/PixelTyper/pkg/apperr"
	"github.com/xob0t/PixelTyper/pkg/compose"
	"github.com/xob0t/PixelTyper/pkg/fonts"
	"github.com/xob0t/PixelTyper/pkg/imagefile"
	"github.com/xob0t/PixelTyper/pkg/template"
)

type testServer struct {
	*httptest.Server
	store *template.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	log, _ := test.NewNullLogger()

	store := template.NewStore(filepath.Join(dir, "coord_templates"), log)
	resolver := fonts.NewResolver(fonts.Options{UserDir: filepath.Join(dir, "fonts"), System: map[string][]string{}, Log: log})
	srv, err := New(Options{
		Engine: compose.New(resolver, store, log),
		Store:  store,
		Fonts:  resolver,
		Log:    log,
	})
	if err != nil {
		t.Fatal(err)
	}
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		srv.Close()
	})
	return &testServer{Server: hs, store: store}
}

func (ts *testServer) upload(t *testing.T, path, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	resp, err := http.Post(ts.URL+path, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (ts *testServer) uploadImage(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, imagefile.NewSolid(120, 60, color.White)); err != nil {
		t.Fatal(err)
	}
	resp := ts.upload(t, "/api/images", "base.png", buf.Bytes())
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	return out["id"]
}

func (ts *testServer) send(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestApplyEndpoint(t *testing.T) {
	ts := newTestServer(t)
	var pts template.Points
	pts.Set("name", template.NewPoint(10, 10))
	if err := ts.store.Save("cert", pts); err != nil {
		t.Fatal(err)
	}
	id := ts.uploadImage(t)

	body := fmt.Sprintf(`{"image":%q,"template":"cert","texts":{"name":"Alice","ghost":"X"},"size":15}`, id)
	resp := ts.send(t, http.MethodPost, "/api/apply", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Skipped-Points"); got != "ghost" {
		t.Errorf("X-Skipped-Points = %q, want ghost", got)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if img.Bounds().Dx() != 120 {
		t.Errorf("width = %d, want 120", img.Bounds().Dx())
	}
}

func TestOverlayEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := ts.uploadImage(t)

	resp := ts.send(t, http.MethodPost, "/api/overlay", fmt.Sprintf(`{"image":%q,"text":"hi","x":4,"y":4,"format":"bmp"}`, id))
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/bmp" {
		t.Errorf("overlay = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	id := ts.uploadImage(t)

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"missing template", http.MethodGet, "/api/templates/nope", "", http.StatusNotFound},
		{"bad json", http.MethodPost, "/api/apply", "{", http.StatusBadRequest},
		{"unknown image", http.MethodPost, "/api/apply", `{"image":"x","template":"t","texts":{"a":"b"}}`, http.StatusNotFound},
		{"empty texts", http.MethodPost, "/api/apply", fmt.Sprintf(`{"image":%q,"template":"t","texts":{}}`, id), http.StatusBadRequest},
		{"bad format", http.MethodPost, "/api/overlay", fmt.Sprintf(`{"image":%q,"text":"a","format":"xyz"}`, id), http.StatusBadRequest},
		{"update missing", http.MethodPatch, "/api/templates/nope/fonts", `{}`, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/images/none", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := ts.send(t, tt.method, tt.path, tt.body); resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestTemplateEndpoints(t *testing.T) {
	ts := newTestServer(t)
	var pts template.Points
	pts.Set("b", template.NewPoint(1, 2))
	pts.Set("a", template.NewPoint(3, 4))
	if err := ts.store.Save("card", pts); err != nil {
		t.Fatal(err)
	}

	var list struct{ Templates []string }
	json.NewDecoder(ts.send(t, http.MethodGet, "/api/templates", "").Body).Decode(&list)
	if len(list.Templates) != 1 || list.Templates[0] != "card" {
		t.Errorf("templates = %v", list.Templates)
	}

	resp := ts.send(t, http.MethodPatch, "/api/templates/card/fonts", `{"a":{"font_size":44},"zzz":{"opacity":5}}`)
	var upd struct{ Skipped []string }
	json.NewDecoder(resp.Body).Decode(&upd)
	if resp.StatusCode != http.StatusOK || len(upd.Skipped) != 1 || upd.Skipped[0] != "zzz" {
		t.Errorf("update = %d, skipped %v", resp.StatusCode, upd.Skipped)
	}

	var got template.Points
	if err := json.NewDecoder(ts.send(t, http.MethodGet, "/api/templates/card", "").Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if a, _ := got.Get("a"); *a.FontSize != 44 {
		t.Errorf("a.font_size = %d, want 44", *a.FontSize)
	}
	if names := got.Names(); names[0] != "b" {
		t.Errorf("order lost: %v", names)
	}
}

func TestFontEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.upload(t, "/api/fonts", "Custom.ttf", goregular.TTF)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("font upload status = %d", resp.StatusCode)
	}
	resp = ts.upload(t, "/api/fonts", "notes.txt", []byte("x"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad font upload status = %d, want 400", resp.StatusCode)
	}

	var list struct{ Fonts []string }
	json.NewDecoder(ts.send(t, http.MethodGet, "/api/fonts", "").Body).Decode(&list)
	if len(list.Fonts) == 0 || list.Fonts[0] != "Custom" {
		t.Errorf("fonts = %v, want Custom first", list.Fonts)
	}
}

func TestImageLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := ts.uploadImage(t)

	if resp := ts.send(t, http.MethodGet, "/api/images/"+id, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("get status = %d", resp.StatusCode)
	}
	if resp := ts.send(t, http.MethodDelete, "/api/images/"+id, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	if resp := ts.send(t, http.MethodGet, "/api/images/"+id, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("x"), http.StatusBadRequest},
		{fmt.Errorf("t: %w", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("i: %w", apperr.ErrLoad), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
