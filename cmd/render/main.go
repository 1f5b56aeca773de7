// Command render renders a single fire danger card from a snapshot fixture
// and writes the HTML fragment, or a standalone preview page, to a file or
// stdout. A fixed -now makes the "Today" and weekday fallbacks reproducible.
//
// Usage:
//
//	go run ./cmd/render \
//	  -snapshot data/mock/snapshot.json \
//	  -entity sensor.central_rating_today \
//	  -now 2024-12-21T09:00:00+11:00 \
//	  -page -out preview.html
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/card"
	"github.com/couchcryptid/fire-danger-card/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	snapshotPath := flag.String("snapshot", "", "path to a snapshot JSON fixture")
	entity := flag.String("entity", domain.DistrictEntityID(domain.Districts[0]), "rating_today entity of the card")
	tz := flag.String("tz", "Australia/Melbourne", "IANA time zone for date labels")
	now := flag.String("now", "", "fixed RFC 3339 time for the clock fallback (default: real clock)")
	page := flag.Bool("page", false, "wrap the fragment in a standalone HTML page")
	out := flag.String("out", "", "output path (default: stdout)")
	flag.Parse()

	if *snapshotPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -snapshot")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	clock := clockwork.NewRealClock()
	if *now != "" {
		t, err := time.Parse(time.RFC3339, *now)
		if err != nil {
			return fmt.Errorf("parse -now: %w", err)
		}
		clock = clockwork.NewFakeClockAt(t)
	}

	snap, err := loadSnapshot(*snapshotPath)
	if err != nil {
		return err
	}

	c, err := card.NewForEntity(*entity, card.NewRenderer(), card.Options{Location: loc, Clock: clock})
	if err != nil {
		return err
	}
	surface, committed, err := c.OnSnapshotChanged(snap)
	if err != nil {
		return err
	}
	if !committed {
		return fmt.Errorf("entity %s not in snapshot", *entity)
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if *page {
		return writePage(w, surface.HTML)
	}
	_, err = w.Write(surface.HTML)
	return err
}

func loadSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

// writePage wraps a fragment with the theme variables a dashboard would supply.
func writePage(w io.Writer, fragment []byte) error {
	_, err := fmt.Fprintf(w, `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
  body { font-family: sans-serif; background: #fafafa; }
  .preview { max-width: 420px; margin: 24px auto;
    --primary-text-color: #212121; --secondary-text-color: #727272;
    --card-background-color: #ffffff; --secondary-background-color: #f5f5f5;
    --divider-color: rgba(0,0,0,0.12); }
</style>
</head>
<body>
<div class="preview">
%s
</div>
</body>
</html>
`, card.Name, fragment)
	return err
}
