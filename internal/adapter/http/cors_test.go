package httpadapter

import (
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func TestAllowOrigin(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    string
		ok      bool
	}{
		{name: "open by default", origin: "https://maps.example", want: "*", ok: true},
		{name: "wildcard entry", allowed: []string{"https://a.example", "*"}, origin: "https://b.example", want: "*", ok: true},
		{name: "listed origin echoed", allowed: []string{"https://maps.example"}, origin: "https://maps.example", want: "https://maps.example", ok: true},
		{name: "unlisted origin", allowed: []string{"https://maps.example"}, origin: "https://evil.example", ok: false},
		{name: "missing origin", allowed: []string{"https://maps.example"}, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := allowOrigin(tc.allowed, tc.origin)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("allowOrigin got=(%q,%v) want=(%q,%v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestCORSMiddleware_RestrictedOrigins(t *testing.T) {
	s := server.New(server.WithHostPorts("127.0.0.1:0"))
	Handler{AllowedOrigins: []string{"https://maps.example"}}.RegisterRoutes(s)

	w := ut.PerformRequest(s.Engine, consts.MethodOptions, "/api/games", nil,
		ut.Header{Key: "Origin", Value: "https://maps.example"})
	if got, want := w.Result().StatusCode(), consts.StatusNoContent; got != want {
		t.Fatalf("preflight status got=%d want=%d", got, want)
	}
	if got := string(w.Result().Header.Peek("Access-Control-Allow-Origin")); got != "https://maps.example" {
		t.Fatalf("allow-origin got=%q want=%q", got, "https://maps.example")
	}
	if got := string(w.Result().Header.Peek("Access-Control-Expose-Headers")); got != corsExposeHeaders {
		t.Fatalf("expose-headers got=%q want=%q", got, corsExposeHeaders)
	}

	w = ut.PerformRequest(s.Engine, consts.MethodOptions, "/api/games", nil,
		ut.Header{Key: "Origin", Value: "https://evil.example"})
	if got := string(w.Result().Header.Peek("Access-Control-Allow-Origin")); got != "" {
		t.Fatalf("unlisted origin should get no allow-origin header, got %q", got)
	}
}
