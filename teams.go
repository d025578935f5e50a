/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/url"
	"time"

	"github.com/Seednode/teambox/room"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// roomURL rebuilds the shareable link for a room from the incoming request,
// respecting TLS and a proxy's X-Forwarded-Proto.
func roomURL(cfg *Config, r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix + "/room/" + url.PathEscape(code)
}

func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		code := ps.ByName("code")
		if !room.ValidCode(code) {
			http.Error(w, "invalid room code", http.StatusBadRequest)

			return
		}

		png, err := qrcode.Encode(roomURL(cfg, r, code), qrcode.Medium, qrSize)
		if err != nil {
			errs <- err

			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: QR code for room %s (%s) to %s in %s",
			code,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// redirectRoom sends /room/ back to the picker.
func redirectRoom(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		http.Redirect(w, r, cfg.prefix+"/", http.StatusTemporaryRedirect)
	}
}

// registerTeams sets up routes so that:
//   - /                 → room picker and client
//   - /room/:code       → client, prefilled with a room code
//   - /room/:code/qr    → PNG QR code for that room's link
//   - /ws               → websocket carrying every room operation
//   - /assets/*file     → embedded client assets
func registerTeams(cfg *Config, mux *httprouter.Router, hub *Hub, errs chan<- error) {
	home := serveHomePage(cfg, errs)

	mux.GET(cfg.prefix+"/", home)

	mux.GET(cfg.prefix+"/room", redirectRoom(cfg))

	mux.GET(cfg.prefix+"/room/:code", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !room.ValidCode(ps.ByName("code")) {
			redirectRoom(cfg)(w, r, ps)

			return
		}

		home(w, r, ps)
	})

	mux.GET(cfg.prefix+"/room/:code/qr", serveQR(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveSocket(cfg, hub))

	mux.GET(cfg.prefix+"/assets/*file", serveAssets(cfg, errs))

	logf(cfg, "SERVE: Registered teams at %s/", cfg.prefix)
}
