package dashboard

// Theme is the chart styling passed explicitly to every chart constructor
// and echoed in the payload. There is no process-global template state.
type Theme struct {
	Colorway        []string `json:"colorway"`
	GridColor       string   `json:"grid_color"`
	PaperBackground string   `json:"paper_background"`
	PlotBackground  string   `json:"plot_background"`
	FontFamily      string   `json:"font_family"`
	FontColor       string   `json:"font_color"`
	FontSize        int      `json:"font_size"`
	TargetLineColor string   `json:"target_line_color"`
}

// DefaultTheme returns the green palette the dashboard ships with
func DefaultTheme() Theme {
	return Theme{
		Colorway: []string{
			"#03C55A", // deep green (primary)
			"#4DD27D", // medium green
			"#3BCC73", // fresh green
			"#79DC9C", // light green
			"#C5EED4", // very light green
		},
		GridColor:       "#D9F2E2",
		PaperBackground: "#FFFFFF",
		PlotBackground:  "#F7FCF9",
		FontFamily:      "Pretendard, Noto Sans KR, Segoe UI, Roboto, Arial",
		FontColor:       "#03C55A",
		FontSize:        13,
		TargetLineColor: "#E53935",
	}
}

// Primary returns the first colorway entry, the color for non-negative bars
func (t Theme) Primary() string {
	if len(t.Colorway) == 0 {
		return "#03C55A"
	}
	return t.Colorway[0]
}

// Secondary returns the bar color for negative values
func (t Theme) Secondary() string {
	if len(t.Colorway) < 3 {
		return t.Primary()
	}
	return t.Colorway[2]
}
