package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/teslashibe/framedigest/internal/config"
	"github.com/teslashibe/framedigest/internal/httpc"
	"github.com/teslashibe/framedigest/internal/log"
	"github.com/teslashibe/framedigest/pkg/web"
)

// runCheck prints the digest served by a running instance, followed by
// its health counters when available.
func runCheck(ctx context.Context, cfg config.Config) int {
	ctx, cancel := context.WithTimeout(ctx, 2*httpc.DefaultTimeout)
	defer cancel()

	url := cfg.DigestURL()
	digest, err := httpc.Digest(ctx, url)
	if err != nil {
		log.Error("digest query failed", "url", url, "error", err)
		return 1
	}
	fmt.Println(digest)

	h, err := httpc.Health(ctx, url)
	if err != nil {
		log.Warn("health query failed", "url", url, "error", err)
		return 0
	}
	fmt.Fprintln(os.Stderr, renderHealth(h))
	return 0
}

func renderHealth(h *web.HealthResponse) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})
	tw.AppendRows([]table.Row{
		{"status", h.Status},
		{"session", h.Session},
		{"absorbs", strconv.FormatUint(h.Absorbs, 10)},
		{"bytes", strconv.FormatUint(h.Bytes, 10)},
		{"cycles", strconv.FormatUint(h.Cycles, 10)},
		{"brightness", strconv.FormatFloat(h.Brightness, 'f', 3, 64)},
		{"clients", strconv.Itoa(h.Clients)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}
