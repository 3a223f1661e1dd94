package credit

// ScoreLabel classifies a numeric credit score into a named band.
type ScoreLabel string

const (
	ScoreLabelMala    ScoreLabel = "mala"
	ScoreLabelRegular ScoreLabel = "regular"
	ScoreLabelBuena   ScoreLabel = "buena"
)

// ScoreBand is a half-open score interval [Min, Max) mapped to a label. The
// top band is closed at the scale ceiling.
type ScoreBand struct {
	Label ScoreLabel
	Min   int
	Max   int
}

// scoreBands is ordered ascending and contiguous. Bands are configuration:
// overlap or gaps here are a programming error, not a runtime condition.
var scoreBands = []ScoreBand{
	{Label: ScoreLabelMala, Min: 0, Max: 400},
	{Label: ScoreLabelRegular, Min: 400, Max: 600},
	{Label: ScoreLabelBuena, Min: 600, Max: 1001},
}

// LabelForScore returns the first band containing score. Scores outside the
// 0-1000 scale fall into the nearest edge band.
func LabelForScore(score int) ScoreLabel {
	for _, band := range scoreBands {
		if score >= band.Min && score < band.Max {
			return band.Label
		}
	}
	if score < 0 {
		return ScoreLabelMala
	}
	return ScoreLabelBuena
}

// BandForLabel returns the score interval for a label, used to narrow listing
// queries by label.
func BandForLabel(label ScoreLabel) (ScoreBand, bool) {
	for _, band := range scoreBands {
		if band.Label == label {
			return band, true
		}
	}
	return ScoreBand{}, false
}
