// Command validate checks a snapshot fixture against the fire danger cards
// that would be configured for it. It reports districts whose forecast
// entities exist without a rating_today entity, cards with missing sibling
// entities, ratings that would fall back to the neutral visual, ban values
// other than Yes/No, and renders that are not byte-identical on repeat.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -snapshot data/mock/snapshot.json \
//	  -entities sensor.central_rating_today,sensor.mallee_rating_today
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/card"
	"github.com/couchcryptid/fire-danger-card/internal/domain"
	"github.com/jonboulle/clockwork"
)

var fixedNow = time.Date(2024, time.December, 21, 9, 0, 0, 0, time.UTC)

var siblingFields = []domain.Field{
	domain.FieldBanToday,
	domain.FieldRatingTomorrow,
	domain.FieldRatingDay3,
	domain.FieldRatingDay4,
	domain.FieldBanTomorrow,
	domain.FieldBanDay3,
	domain.FieldBanDay4,
}

var (
	ratingFields = map[domain.Field]bool{
		domain.FieldRatingToday:    true,
		domain.FieldRatingTomorrow: true,
		domain.FieldRatingDay3:     true,
		domain.FieldRatingDay4:     true,
	}
	banValues = map[string]bool{"Yes": true, "No": true}
)

// phase tracks pass/fail for a validation phase. Warnings describe data the
// card tolerates but renders with defaults.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	snapshotPath := flag.String("snapshot", "", "path to a snapshot JSON fixture")
	entities := flag.String("entities", "", "comma-separated rating_today entities (default: every one in the snapshot)")
	flag.Parse()

	if *snapshotPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*snapshotPath, *entities); code != 0 {
		os.Exit(code)
	}
}

func run(snapshotPath, entityList string) int {
	clock := clockwork.NewFakeClockAt(fixedNow)

	fmt.Println("=== Fire Danger Card Snapshot Validation ===")
	fmt.Println()

	snap, err := loadSnapshot(snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load snapshot: %v\n", err)
		return 1
	}

	entities := splitEntities(entityList)
	if len(entities) == 0 {
		entities = primaryEntities(snap)
	}

	phases := []*phase{
		validatePrimaries(snap, entities),
		validateSiblings(snap, entities),
		validateValues(snap, entities),
		validateRenders(snap, entities, clock),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		} else if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Snapshot: %d entities, %d cards checked\n", len(snap), len(entities))

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [E%d] %s\n", i+1, e)
		}
		for i, w := range p.warnings {
			fmt.Printf("  [W%d] %s\n", i+1, w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func splitEntities(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// primaryEntities returns every rating_today entity in the snapshot, sorted.
func primaryEntities(snap domain.Snapshot) []string {
	suffix := "_" + string(domain.FieldRatingToday)
	var out []string
	for id := range snap {
		if strings.HasSuffix(id, suffix) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ── Phase 1: Primary entities ──

func validatePrimaries(snap domain.Snapshot, entities []string) *phase {
	p := &phase{name: "Phase 1: Primary entities"}

	configured := make(map[string]bool, len(entities))
	for _, e := range entities {
		configured[domain.BaseID(e)] = true
		if _, ok := snap[e]; !ok {
			p.errorf("%s: not in snapshot, the card would stay blank", e)
		}
	}

	// Districts that publish forecast entities but no rating_today.
	orphans := map[string]bool{}
	for id := range snap {
		for _, f := range siblingFields {
			suffix := "_" + string(f)
			if !strings.HasSuffix(id, suffix) {
				continue
			}
			base := strings.TrimSuffix(id, suffix)
			primary := domain.DeriveKey(base, domain.FieldRatingToday).String()
			if _, ok := snap[primary]; !ok && !configured[base] {
				orphans[base] = true
			}
		}
	}
	for _, base := range sortedKeys(orphans) {
		p.warnf("%s: sibling entities present without %s", base, domain.FieldRatingToday)
	}
	return p
}

// ── Phase 2: Sibling entities ──

func validateSiblings(snap domain.Snapshot, entities []string) *phase {
	p := &phase{name: "Phase 2: Sibling entities"}

	for _, e := range entities {
		if _, ok := snap[e]; !ok {
			continue
		}
		base := domain.BaseID(e)
		for _, f := range siblingFields {
			key := domain.DeriveKey(base, f)
			if _, ok := snap.Lookup(key); !ok {
				p.warnf("%s: missing %s, default will be shown", e, key)
			}
		}
		primary := snap[e]
		if primary.StringAttr("area_name") == "" {
			p.warnf("%s: no area_name attribute, header shows \"District\"", e)
		}
		if ts := primary.StringAttr("last_updated"); ts == "" {
			p.warnf("%s: no last_updated attribute, dates follow the clock", e)
		} else if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
			p.errorf("%s: last_updated %q is not ISO 8601", e, ts)
		}
	}
	return p
}

// ── Phase 3: Values ──

func validateValues(snap domain.Snapshot, entities []string) *phase {
	p := &phase{name: "Phase 3: Rating and ban values"}

	for _, e := range entities {
		if _, ok := snap[e]; !ok {
			continue
		}
		base := domain.BaseID(e)
		for _, f := range append([]domain.Field{domain.FieldRatingToday}, siblingFields...) {
			key := domain.DeriveKey(base, f)
			state, ok := snap.Lookup(key)
			if !ok {
				continue
			}
			if ratingFields[f] {
				if !domain.ParseRating(state.State).Known() {
					p.errorf("%s: rating %q is not recognized and renders as the fallback", key, state.State)
				}
				continue
			}
			if !banValues[state.State] {
				p.errorf("%s: ban %q is neither Yes nor No and renders as no ban", key, state.State)
			}
		}
	}
	return p
}

// ── Phase 4: Render ──

func validateRenders(snap domain.Snapshot, entities []string, clock clockwork.Clock) *phase {
	p := &phase{name: "Phase 4: Render idempotence"}
	renderer := card.NewRenderer()

	for _, e := range entities {
		c, err := card.NewForEntity(e, renderer, card.Options{Location: time.UTC, Clock: clock})
		if err != nil {
			p.errorf("%s: %v", e, err)
			continue
		}

		first, committed, err := c.OnSnapshotChanged(snap)
		if err != nil {
			p.errorf("%s: render: %v", e, err)
			continue
		}
		if !committed {
			continue
		}
		second, _, err := c.OnSnapshotChanged(snap)
		if err != nil {
			p.errorf("%s: second render: %v", e, err)
			continue
		}

		if !bytes.Equal(first.HTML, second.HTML) {
			p.errorf("%s: repeated render produced different output", e)
		}
		needle := "rotate(" + strconv.FormatFloat(first.Model.NeedleAngle, 'f', -1, 64) + "deg)"
		if !bytes.Contains(first.HTML, []byte(needle)) {
			p.errorf("%s: output is missing needle transform %s", e, needle)
		}
	}
	return p
}

// ── Helpers ──

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
