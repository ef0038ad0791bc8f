/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// roomURL is the address players open to join roomID. It points at the game
// client when one is configured, otherwise at this server.
func roomURL(cfg *Config, r *http.Request, roomID string) string {
	base := strings.TrimSuffix(cfg.clientURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host + cfg.prefix
	}

	return base + "/room/" + url.PathEscape(roomID)
}

// serveRoomQR renders a PNG QR code of the share link for :roomid.
func serveRoomQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		roomID := p.ByName("roomid")
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		link := roomURL(cfg, r, roomID)

		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			errs <- err

			return
		}

		log.Debug().Str("room", roomID).Str("ip", realIP(r)).Msgf("SERVE: QR code for %s (%s) in %s",
			link,
			humanReadableSize(int64(written)),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}
