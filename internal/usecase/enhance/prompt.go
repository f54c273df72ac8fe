package enhance

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/katalog/internal/domain/item"
)

// SystemPrompt frames every enhancement request.
const SystemPrompt = `Du är en erfaren katalogiserare på ett svenskt auktionshus.
Du förbättrar katalogtexter för Auctionet. Du skriver sakligt, kortfattat och på korrekt svenska.
Du hittar aldrig på fakta som inte står i underlaget.`

var rulesText = []string{
	"Lägg aldrig till information som inte finns i originaltexten (material, datering, signatur, mått, proveniens).",
	"Behåll konstnärens eller designerns namn exakt som det är skrivet.",
	"Titeln ska börja med föremålstyp, följt av kommaseparerade uppgifter. Ingen avslutande punkt.",
	"Använd svenska auktionstermer och förkortningar enligt Auctionets praxis (t.ex. \"ca\", \"cm\", \"h\").",
	"Skriv inte värderande ord som \"fantastisk\", \"unik\" eller \"sällsynt\".",
	"Kondition beskriver bara skick. Om skicket inte framgår, skriv \"Bruksslitage.\"",
	"Sökord är extra ord som inte redan står i titel eller beskrivning, separerade med mellanslag.",
}

var fieldLabels = []struct {
	field Field
	label string
}{
	{FieldTitle, "TITEL"},
	{FieldDescription, "BESKRIVNING"},
	{FieldCondition, "KONDITION"},
	{FieldKeywords, "SÖKORD"},
}

// BuildPrompt renders the user prompt for an item and field.
func BuildPrompt(it item.Item, f Field) string {
	var b strings.Builder

	b.WriteString("FÖREMÅL:\n")
	writeValue(&b, "Kategori", it.Category)
	writeValue(&b, "Konstnär", it.Artist)
	writeValue(&b, "Titel", it.Title)
	writeValue(&b, "Beskrivning", it.Description)
	writeValue(&b, "Kondition", it.Condition)
	writeValue(&b, "Sökord", it.Keywords)

	b.WriteString("\nREGLER:\n")
	for i, r := range rulesText {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	b.WriteString("\nUPPGIFT:\n")
	switch f {
	case FieldTitleCorrect:
		b.WriteString("Rätta endast stavfel, versaler och skiljetecken i titeln. Ändra inte ordval eller ordning.\n")
		b.WriteString("Svara i formatet:\nTITEL: [rättad titel]\n")
	case FieldAll:
		b.WriteString("Förbättra titel, beskrivning, kondition och sökord.\n")
		b.WriteString("Svara exakt i formatet:\n")
		for _, l := range fieldLabels {
			fmt.Fprintf(&b, "%s: [%s]\n", l.label, strings.ToLower(l.label))
		}
	default:
		label := labelFor(f)
		fmt.Fprintf(&b, "Förbättra endast fältet %s.\n", strings.ToLower(label))
		fmt.Fprintf(&b, "Svara i formatet:\n%s: [%s]\n", label, strings.ToLower(label))
	}
	return b.String()
}

func writeValue(b *strings.Builder, name, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "(tomt)"
	}
	fmt.Fprintf(b, "%s: %s\n", name, value)
}

func labelFor(f Field) string {
	if f == FieldTitleCorrect {
		f = FieldTitle
	}
	for _, l := range fieldLabels {
		if l.field == f {
			return l.label
		}
	}
	return ""
}
