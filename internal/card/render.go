package card

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/couchcryptid/fire-danger-card/internal/domain"
)

// MinHeightPx is the card's minimum layout height in CSS pixels.
const MinHeightPx = 485

//go:embed card.gohtml
var cardTemplate string

var tmpl = template.Must(template.New("card").Parse(cardTemplate))

// cardView is the template's input. Colors and the needle angle come from
// fixed tables in package domain and are marked as trusted CSS.
type cardView struct {
	MinHeight   int
	AreaName    string
	HeaderDate  string
	NeedleAngle template.CSS
	Sectors     [4]string
	Rating      string
	RatingColor template.CSS
	Message     string
	BanToday    bool
	Forecast    []tileView
}

type tileView struct {
	Label     string
	Rating    string
	Color     template.CSS
	BanActive bool
}

// Renderer turns a visual model into the card's HTML fragment.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a Renderer using the embedded card template.
func NewRenderer() *Renderer {
	return &Renderer{tmpl: tmpl}
}

// Render rebuilds the whole fragment for m. The output depends only on m,
// so identical models produce byte-identical fragments.
func (r *Renderer) Render(m domain.VisualModel) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, newCardView(m)); err != nil {
		return nil, fmt.Errorf("render card: %w", err)
	}
	return buf.Bytes(), nil
}

func newCardView(m domain.VisualModel) cardView {
	v := cardView{
		MinHeight:   MinHeightPx,
		AreaName:    m.Observation.AreaName,
		HeaderDate:  m.HeaderDate,
		NeedleAngle: template.CSS(strconv.FormatFloat(m.NeedleAngle, 'f', -1, 64)),
		Sectors:     domain.GaugeSectors(),
		Rating:      m.Observation.Rating,
		RatingColor: template.CSS(m.Info.Color),
		Message:     m.Info.Message,
		BanToday:    m.Observation.BanToday,
		Forecast:    make([]tileView, 0, len(m.Forecast)),
	}
	for _, day := range m.Forecast {
		v.Forecast = append(v.Forecast, tileView{
			Label:     day.Label,
			Rating:    day.DisplayRating(),
			Color:     template.CSS(day.Info.Color),
			BanActive: day.BanActive,
		})
	}
	return v
}
