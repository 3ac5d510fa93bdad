package feedback

import "github.com/okian/telematics/internal/domain/model"

var catalog = []model.Template{
	{
		Type:        model.HarshBraking,
		Severity:    model.SeverityMedium,
		Location:    "Main St & 5th Ave",
		Message:     "Harsh braking detected. Consider increasing your following distance.",
		Suggestions: []string{"Maintain 3-second following rule", "Scan ahead for potential hazards"},
		Impact:      -2,
	},
	{
		Type:        model.SmoothDriving,
		Severity:    model.SeverityLow,
		Location:    "Highway 101",
		Message:     "Great job! Smooth driving detected.",
		Suggestions: []string{"Keep up the excellent driving"},
		Impact:      +1,
	},
	{
		Type:        model.RapidAcceleration,
		Severity:    model.SeverityLow,
		Location:    "Oak Street",
		Message:     "Gentle reminder: Gradual acceleration helps improve fuel efficiency.",
		Suggestions: []string{"Accelerate gradually", "Anticipate green lights"},
		Impact:      -1,
	},
	{
		Type:        model.Speeding,
		Severity:    model.SeverityMedium,
		Location:    "Residential Area",
		Message:     "Speeding detected. Please observe posted speed limits.",
		Suggestions: []string{"Reduce speed immediately", "Allow extra time for trips"},
		Impact:      -3,
	},
}

// Catalog returns a copy of the four mock event templates.
func Catalog() []model.Template {
	out := make([]model.Template, len(catalog))
	for i, t := range catalog {
		out[i] = t
		out[i].Suggestions = append([]string(nil), t.Suggestions...)
	}
	return out
}

var tips = []model.Tip{
	{Kind: model.ToneInfo, Title: "Tip:", Text: "Maintain a 3-second following distance to reduce harsh braking events."},
	{Kind: model.TonePositive, Title: "Great job!", Text: "Your smooth acceleration technique is improving fuel efficiency."},
	{Kind: model.ToneWarning, Title: "Watch out:", Text: "You tend to brake harder in residential areas. Try anticipating stops earlier."},
}

// Tips returns the static smart driving tips.
func Tips() []model.Tip {
	return append([]model.Tip(nil), tips...)
}
