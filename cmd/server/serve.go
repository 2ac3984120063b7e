package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/johanlidstrom74-sudo/julkampen/internal/config"
	"github.com/johanlidstrom74-sudo/julkampen/internal/game"
	"github.com/johanlidstrom74-sudo/julkampen/internal/ws"
)

func serve(cfg *config.Config) error {
	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		zerologlog.Info().
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("dur", time.Since(start)).
			Msg("http")
	})
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", cfg.FrontendOrigin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Next()
	})

	// Liveness; no room data here.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	registry := game.NewRegistry()
	sock := ws.New(registry, cfg.ExportFile)
	io := sock.Mount(r, cfg.FrontendOrigin)
	defer io.Close()

	// PNG QR code pointing players at the join page for a live room.
	r.GET("/qr/:code", qrHandler(cfg, registry))

	zerologlog.Info().Str("addr", cfg.Addr()).Str("origin", cfg.FrontendOrigin).Msg("listening")
	return r.Run(cfg.Addr())
}

func qrHandler(cfg *config.Config, registry *game.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, err := registry.Find(c.Param("code"))
		if err != nil {
			c.String(http.StatusNotFound, "no such room")
			return
		}

		url := strings.TrimSuffix(cfg.FrontendOrigin, "/") + "/?code=" + room.Code()

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			c.String(http.StatusInternalServerError, "qr generation failed")
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}
