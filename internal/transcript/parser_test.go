// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kortsvar/pkg/types"
)

func TestParseSingleQuestion(t *testing.T) {
	input := "2026\n" +
		"Opgave 1. Hjertet\n" +
		"a) Beskriv hjertets faser.\n" +
		"Svar: Systole og diastole.\n" +
		"Kilde: Pensum s. 12\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 1)

	q := got[0]
	assert.Equal(t, 2026, q.Year)
	assert.Nil(t, q.Session)
	assert.Equal(t, 1, q.Opgave)
	assert.Equal(t, "Hjertet", q.OpgaveTitle)
	assert.Nil(t, q.OpgaveIntro)
	require.NotNil(t, q.Label)
	assert.Equal(t, "a", *q.Label)
	assert.Equal(t, "Beskriv hjertets faser.", q.Prompt)
	assert.Equal(t, "Systole og diastole.", q.Answer)
	assert.Equal(t, []string{"Pensum s. 12"}, q.Sources)
	assert.Equal(t, []string{}, q.Images)
}

func TestParseMultiParagraphAnswer(t *testing.T) {
	input := "2026\n" +
		"Opgave 1. Hjertet\n" +
		"a) Beskriv hjertets faser.\n" +
		"Svar: Systole er kontraktionsfasen.   \n" +
		"\n" +
		"Diastole er afslapningsfasen.\n" +
		"\n" +
		"b) Hvad er slagvolumen?\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Systole er kontraktionsfasen.\n\nDiastole er afslapningsfasen.", got[0].Answer)
	assert.Equal(t, "b", got[1].LabelString())
	assert.Equal(t, "Hvad er slagvolumen?", got[1].Prompt)
	assert.Empty(t, got[1].Answer)
}

func TestParsePromptContinuationCollapsesSpaces(t *testing.T) {
	input := "2026\n" +
		"Opgave 1. Hjertet\n" +
		"a) Beskriv   hjertets\n" +
		"faser og   deres varighed.\n" +
		"  Systole og diastole.\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Beskriv hjertets faser og deres varighed.", got[0].Prompt)
	assert.Equal(t, "Systole og diastole.", got[0].Answer)
}

func TestParseAnswerAfterBlankLine(t *testing.T) {
	input := "2026\n" +
		"Opgave 2. Blodet\n" +
		"Hvad er hæmatokrit?\n" +
		"\n" +
		"Andelen af blodets volumen der udgøres af røde blodlegemer.\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Label)
	assert.Equal(t, "Hvad er hæmatokrit?", got[0].Prompt)
	assert.Equal(t, "Andelen af blodets volumen der udgøres af røde blodlegemer.", got[0].Answer)
}

func TestParseSources(t *testing.T) {
	input := "2026\n" +
		"Opgave 1. Hjertet\n" +
		"a) Beskriv hjertets faser.\n" +
		"Svar: Systole og diastole.\n" +
		"Kilde: Pensum s. 12\n" +
		"(Fig. 4.2)\n" +
		"Kilde:\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Pensum s. 12", "(Fig. 4.2)"}, got[0].Sources)
	assert.Equal(t, "Systole og diastole.", got[0].Answer)
}

func TestParseIntroBeforeLetteredBlock(t *testing.T) {
	input := "2026\n" +
		"Opgave 1. Hjertet\n" +
		"Hjertet har fire kamre:\n" +
		"a) Nævn kamrene.\n" +
		"Svar: To forkamre og to hjertekamre.\n" +
		"b) Hvad adskiller dem?\n" +
		"Svar: Skillevæggen.\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, q := range got {
		require.NotNil(t, q.OpgaveIntro)
		assert.Equal(t, "Hjertet har fire kamre", *q.OpgaveIntro)
	}
	assert.Equal(t, "Skillevæggen.", got[1].Answer)
}

func TestParseImplicitHeadingNumbering(t *testing.T) {
	input := "2026\n" +
		"Opgave 3. Nyrerne\n" +
		"a) Hvad er GFR?\n" +
		"Svar: Glomerulær filtrationsrate.\n" +
		"Lungerne\n" +
		"Hvad er vitalkapacitet?\n" +
		"Svar: Den maksimale udåndingsvolumen.\n" +
		"2025\n" +
		"Hjertet\n" +
		"Hvad pumper hjertet?\n" +
		"Svar: Blod.\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 3, got[0].Opgave)

	assert.Equal(t, 4, got[1].Opgave, "implicit heading continues after the largest explicit number")
	assert.Equal(t, "Lungerne", got[1].OpgaveTitle)
	assert.Nil(t, got[1].Label)
	assert.Equal(t, "Den maksimale udåndingsvolumen.", got[1].Answer)

	assert.Equal(t, 2025, got[2].Year)
	assert.Equal(t, 1, got[2].Opgave, "year header resets the counter")
	assert.Equal(t, "Hjertet", got[2].OpgaveTitle)
}

func TestParseTopicHeader(t *testing.T) {
	input := "2014\n" +
		"Hovedemne 2: Respirationsfysiologi\n" +
		"a) Hvad er compliance?\n" +
		"Svar: Lungens eftergivelighed.\n" +
		"Lever og galde\n" +
		"Hvad danner leveren?\n" +
		"Svar: Galde.\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Opgave)
	assert.Equal(t, "Respirationsfysiologi", got[0].OpgaveTitle)
	assert.Equal(t, 3, got[1].Opgave)
}

func TestParseUnderspoergsmaal(t *testing.T) {
	t.Run("labeled synthesizes opgave", func(t *testing.T) {
		input := "2026\n" +
			"Underspørgsmål 2 - a) Hvad er ADH?\n" +
			"Svar: Antidiuretisk hormon.\n"

		got, err := Parse(input)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 2, got[0].Opgave)
		assert.Equal(t, "Opgave 2", got[0].OpgaveTitle)
		assert.Equal(t, "a", got[0].LabelString())
		assert.Equal(t, "Hvad er ADH?", got[0].Prompt)
	})

	t.Run("unlabeled lead-in joins intro", func(t *testing.T) {
		input := "2026\n" +
			"Opgave 4. Lungerne\n" +
			"Underspørgsmål 1 - Om respiration:\n" +
			"\n" +
			"a) Hvad er tidalvolumen?\n" +
			"Svar: Volumen ved et normalt åndedrag.\n"

		got, err := Parse(input)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].OpgaveIntro)
		assert.Equal(t, "Underspørgsmål 1 - Om respiration", *got[0].OpgaveIntro)
		assert.Equal(t, 4, got[0].Opgave)
	})

	t.Run("unlabeled opens unlabeled question", func(t *testing.T) {
		input := "2026\n" +
			"Opgave 5. Nyrer\n" +
			"Underspørgsmål 1 - Hvad er GFR?\n" +
			"Svar: Filtrationshastigheden.\n" +
			"Underspørgsmål 2 - Hvad er renin?\n" +
			"Svar: Et enzym.\n"

		got, err := Parse(input)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, q := range got {
			assert.Nil(t, q.Label)
			assert.Equal(t, 5, q.Opgave)
		}
		assert.Equal(t, "Hvad er GFR?", got[0].Prompt)
		assert.Equal(t, "Et enzym.", got[1].Answer)
	})
}

func TestParseSessions(t *testing.T) {
	tests := []struct {
		header string
		want   *types.Session
	}{
		{"2022", nil},
		{"2019 - Sygeeksamen", types.SessionPtr(types.SessionReExam)},
		{"2020 ordinær eksamen", types.SessionPtr(types.SessionOrdinary)},
		{"2021 – Vinter", types.SessionPtr("vinter")},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := Parse(tt.header + "\nOpgave 1. Hjertet\na) Hvad?\n")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Session)
		})
	}
}

func TestParseDiscardsEmptyBuffers(t *testing.T) {
	// A label with no prompt text is dropped silently. This also hides a
	// transcript author's mistake; callers rely on it for stray markers.
	input := "2026\n" +
		"Opgave 1. Hjertet\n" +
		"a)\n" +
		"b) Hvad er puls?\n"

	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].LabelString())

	empty, err := Parse("\n\n   \n")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantYear   bool
		wantOpgave bool
		wantInText string
	}{
		{
			name:       "content before year",
			input:      "Hvad er systole?\nSvar: Kontraktion.\n",
			wantInText: "before any year header",
		},
		{
			name:       "heading before year",
			input:      "Hjertet\nHvad er systole?\n",
			wantOpgave: true,
			wantInText: "no year, opgave 1",
		},
		{
			name:       "content before opgave",
			input:      "2026\nHvad er systole?\nSvar: Kontraktion.\n",
			wantYear:   true,
			wantInText: "year 2026, no opgave",
		},
		{
			name: "error discards earlier questions",
			input: "2026\nOpgave 1. Hjertet\na) Hvad?\nSvar: Noget.\n" +
				"2027\nHvad er puls?\n",
			wantYear:   true,
			wantInText: "year 2027",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrStructure))

			var spe *StructuralParseError
			require.True(t, errors.As(err, &spe))
			assert.Equal(t, tt.wantYear, spe.Year != nil)
			assert.Equal(t, tt.wantOpgave, spe.Opgave != nil)
			assert.Contains(t, err.Error(), tt.wantInText)
		})
	}
}

func TestParseOpgaveRoundTrip(t *testing.T) {
	got, err := Parse("2026\nOpgave 12.   Nyrernes funktion  \na) Hvad filtrerer nyren?\n")
	require.NoError(t, err)
	require.Len(t, got, 1)

	header := Classify("Opgave 12.   Nyrernes funktion  ")
	assert.Equal(t, header.Number, got[0].Opgave)
	assert.Equal(t, header.Title, got[0].OpgaveTitle)
	assert.Equal(t, "Nyrernes funktion", got[0].OpgaveTitle)
}

func TestParseIsDeterministic(t *testing.T) {
	input := "2019 - Sygeeksamen\n" +
		"Opgave 1. Hjertet\n" +
		"Hjertet har fire kamre:\n" +
		"a) Nævn kamrene.\n" +
		"Svar: To forkamre og to hjertekamre.\n" +
		"Kilde: Pensum s. 3\n" +
		"b) Tegn en skitse af hjertet.\n" +
		"Lungerne\n" +
		"Hvad er compliance?\n" +
		"\n" +
		"Eftergivelighed.\n"

	first, err := Parse(input)
	require.NoError(t, err)
	second, err := Parse(input)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestParserRules(t *testing.T) {
	p := NewParser("")

	st, err := p.lettered(Classify("2026"))
	require.NoError(t, err)
	assert.False(t, st.handled, "lettered rule must ignore year headers")

	st, err = p.yearHeader(Classify("2026"))
	require.NoError(t, err)
	assert.True(t, st.handled)
	assert.Nil(t, st.emitted)

	_, err = p.opgaveHeader(Classify("Opgave 1. Hjertet"))
	require.NoError(t, err)
	assert.Equal(t, BetweenQuestions, p.State())

	st, err = p.reference(Classify("Kilde: Pensum s. 1"))
	require.NoError(t, err)
	assert.False(t, st.handled, "citations need an open question")

	_, err = p.lettered(Classify("a) Hvad er systole?"))
	require.NoError(t, err)
	assert.Equal(t, InPrompt, p.State())

	_, err = p.continuation(Classify("Svar: Kontraktion."))
	require.NoError(t, err)
	assert.Equal(t, InAnswer, p.State())

	st, err = p.reference(Classify("Kilde: Pensum s. 1"))
	require.NoError(t, err)
	assert.True(t, st.handled)

	st, err = p.lettered(Classify("b) Hvad er diastole?"))
	require.NoError(t, err)
	require.NotNil(t, st.emitted)
	assert.Equal(t, "a", st.emitted.LabelString())
	assert.Equal(t, "Kontraktion.", st.emitted.Answer)
	assert.Equal(t, []string{"Pensum s. 1"}, st.emitted.Sources)
	assert.Equal(t, InPrompt, p.State())

	st, err = p.implicitHeading(Classify("Lungerne"))
	require.NoError(t, err)
	require.NotNil(t, st.emitted)
	assert.Equal(t, "b", st.emitted.LabelString())
	assert.Equal(t, BetweenQuestions, p.State())
	require.NotNil(t, p.opgave)
	assert.Equal(t, 2, *p.opgave)
}

func TestParseReferenceOutsideQuestion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPrompts []string
		wantSources [][]string
	}{
		{
			name: "citation with no open question becomes a prompt",
			input: "2026\n" +
				"Opgave 1. Hjertet\n" +
				"Kilde: Pensum s. 12\n" +
				"Svar: Se pensum.\n",
			wantPrompts: []string{"Kilde: Pensum s. 12"},
			wantSources: [][]string{{}},
		},
		{
			name: "empty underspørgsmål keeps its citation and is dropped",
			input: "2026\n" +
				"Opgave 2. Nyrer\n" +
				"Underspørgsmål 1 - a)\n" +
				"Kilde: Pensum s. 3\n" +
				"b) Hvad er GFR?\n",
			wantPrompts: []string{"Hvad er GFR?"},
			wantSources: [][]string{{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			require.Len(t, got, len(tt.wantPrompts))
			for i, q := range got {
				assert.Equal(t, tt.wantPrompts[i], q.Prompt)
				assert.Equal(t, tt.wantSources[i], q.Sources)
			}
		})
	}

	t.Run("first question stays unlabeled", func(t *testing.T) {
		got, err := Parse("2026\nOpgave 1. Hjertet\nKilde: Pensum s. 12\nSvar: Se pensum.\n")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Label)
		assert.Equal(t, "Se pensum.", got[0].Answer)
	})

	t.Run("empty underspørgsmål holds the buffer open", func(t *testing.T) {
		p := NewParser("")
		_, err := p.yearHeader(Classify("2026"))
		require.NoError(t, err)
		_, err = p.opgaveHeader(Classify("Opgave 2. Nyrer"))
		require.NoError(t, err)

		_, err = p.subQuestion(Classify("Underspørgsmål 1 - a)"))
		require.NoError(t, err)
		assert.Equal(t, InPrompt, p.State())

		st, err := p.reference(Classify("Kilde: Pensum s. 3"))
		require.NoError(t, err)
		assert.True(t, st.handled)
		assert.Equal(t, []string{"Pensum s. 3"}, p.sources)

		q, err := p.finalize()
		require.NoError(t, err)
		assert.Nil(t, q)
	})
}
