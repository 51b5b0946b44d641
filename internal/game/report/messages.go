package report

import (
	"fmt"
	"strings"
	"text/template"
)

// Message ids for the prompts a negotiation shows while awaiting action.
const (
	MsgPromptShaken            = "prompt.shaken"
	MsgPromptWoundedFromShaken = "prompt.wounded_from_shaken"
	MsgPromptWounds            = "prompt.wounds_about_to_be_taken"
	MsgPromptUnharmed          = "prompt.unharmed"
	MsgPromptReroll            = "prompt.reroll"
)

var catalog = map[string]string{
	MsgPromptShaken:            `{{.Name}} is about to be Shaken.`,
	MsgPromptWoundedFromShaken: `{{.Name}} is already Shaken and is about to take a Wound instead.`,
	MsgPromptWounds:            `{{.Name}} is about to take {{.WoundsText}}.`,
	MsgPromptUnharmed:          `{{.Name}} is unharmed by this hit.`,
	MsgPromptReroll:            `{{.Name}} still faces {{.WoundsText}}. Soak again?`,

	string(KindNoSignificantDamage): `{{.Name}} takes no significant damage.`,
	string(KindSoakedAll):           `{{.Name}} soaks all the Wounds!`,
	string(KindShakenWithWounds):    `{{.Name}} is Shaken and takes {{.WoundsText}}.`,
	string(KindIncapacitated):       `{{.Name}} takes {{.WoundsText}} and is Incapacitated!`,
	string(KindShaken):              `{{.Name}} is Shaken.`,
	string(KindWoundedFromShaken):   `{{.Name}} was already Shaken and takes a Wound.`,
	string(KindInjury):              `{{.Name}} suffers an injury: {{.Injury}}.`,
}

var templates = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(catalog))
	for id, text := range catalog {
		out[id] = template.Must(template.New(id).Parse(text))
	}
	return out
}()

const detailText = `Damage {{.Damage}}{{if .Adjusted}} (rolled {{.RolledDamage}}){{end}}, ` +
	`AP {{.AP}}{{if .Adjusted}} (rolled {{.RolledAP}}){{end}}` +
	`{{if .Toughness}} vs Toughness {{deref .Toughness}} ({{deref .Armor}}){{end}}`

var detailTemplate = template.Must(template.New("detail").
	Funcs(template.FuncMap{"deref": func(p *int) int { return *p }}).
	Parse(detailText))

// messageData is the template context for catalog entries.
type messageData struct {
	Name       string
	WoundsText string
	Injury     string
}

// WoundsText renders a wound count with the correct noun.
func WoundsText(n int) string {
	if n == 1 {
		return "1 Wound"
	}
	return fmt.Sprintf("%d Wounds", n)
}

// Message renders catalog entry id for target name with the given wound count.
//
// Postcondition: Returns id itself when the catalog has no such entry.
func Message(id, name string, wounds int) string {
	return message(id, messageData{Name: name, WoundsText: WoundsText(wounds)})
}

func message(id string, data messageData) string {
	tmpl, ok := templates[id]
	if !ok {
		return id
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return id
	}
	return b.String()
}

// Render returns the text for r: the outcome line, then the numbers line for
// damage outcomes.
func Render(r Report) string {
	line := message(string(r.Kind), messageData{
		Name:       r.TargetName,
		WoundsText: WoundsText(r.Wounds),
		Injury:     r.Injury,
	})
	if r.Kind == KindInjury {
		return line
	}
	var b strings.Builder
	b.WriteString(line)
	b.WriteString("\n")
	if err := detailTemplate.Execute(&b, r); err != nil {
		return line
	}
	return b.String()
}
