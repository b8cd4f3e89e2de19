package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"vanbiz/pkg/contracts/domain"
)

// Bar is one horizontal bar.
type Bar struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Text       string  `json:"text"`
	Color      string  `json:"color"`
	LabelColor string  `json:"label_color"`
}

// BarChart is a top-N ranking drawn as horizontal bars. Bars are in
// ascending order so the largest is drawn last, at the top.
type BarChart struct {
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	XField     string `json:"x"`
	YField     string `json:"y"`
	TopN       int    `json:"top_n"`
	Background string `json:"background"`
	ColorMap   string `json:"color_map"`
	Bars       []Bar  `json:"bars"`
}

// NewBarChart groups the dataset by XField, sums YField per group, keeps
// the TopN largest groups and colours them along the theme's ramp. Equal
// sums rank by label.
func NewBarChart(s domain.Summary, p PlotParams) (*BarChart, error) {
	p.Kind = KindBar
	if err := p.Validate(); err != nil {
		return nil, err
	}

	f := frameFor(s, p.Dataset)
	labels, values := f.labels[p.XField], f.values[p.YField]

	sums := make(map[string]float64, len(labels))
	for i, l := range labels {
		sums[l] += values[i]
	}
	groups := make([]string, 0, len(sums))
	for l := range sums {
		groups = append(groups, l)
	}
	sort.Strings(groups)
	sort.SliceStable(groups, func(i, j int) bool { return sums[groups[i]] > sums[groups[j]] })
	if len(groups) > p.TopN {
		groups = groups[:p.TopN]
	}

	palette := PaletteFor(p.Theme)
	colors := palette.Ramp(p.TopN)
	bars := make([]Bar, len(groups))
	for i := range groups {
		label := groups[len(groups)-1-i]
		bars[i] = Bar{
			Label:      label,
			Value:      sums[label],
			Text:       formatThousands(sums[label]),
			Color:      colors[i],
			LabelColor: ContrastColor(colors[i]),
		}
	}

	return &BarChart{
		Kind:       KindBar,
		Title:      fmt.Sprintf("Top %d %s by %s", p.TopN, p.XField, p.YField),
		XField:     p.XField,
		YField:     p.YField,
		TopN:       p.TopN,
		Background: palette.Background,
		ColorMap:   palette.ColorMap,
		Bars:       bars,
	}, nil
}

// formatThousands rounds v and groups its digits in threes, "12,345".
func formatThousands(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}
