package question

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDifficulty(t *testing.T) {
	cases := map[string]string{
		"easy":        DifficultyEasy,
		"  EASY-ish ": DifficultyEasy,
		"Hard":        DifficultyHard,
		"med":         DifficultyMedium,
		"Medium":      DifficultyMedium,
		"moderate":    "",
		"":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDifficulty(in), "input %q", in)
	}
	assert.Equal(t, DifficultyMedium, DifficultyOrMedium("unknown"))
	assert.Equal(t, DifficultyHard, DifficultyOrMedium("hard"))
}

func TestLooksLikePlaceholder(t *testing.T) {
	assert.True(t, LooksLikePlaceholder("   ", "", ""))
	assert.True(t, LooksLikePlaceholder("3", "", ""))
	assert.True(t, LooksLikePlaceholder("Medium", "", ""))
	assert.True(t, LooksLikePlaceholder("Open Ended", "", ""))
	assert.True(t, LooksLikePlaceholder("N/A", "n/a", ""))
	assert.True(t, LooksLikePlaceholder("Paris", "", " paris "))
	assert.False(t, LooksLikePlaceholder("What is the boiling point of water?", DifficultyMedium, "100"))
	assert.False(t, LooksLikePlaceholder("Paris", "", ""))
}

func TestRecordUnmarshalKeepsUnknownKeys(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"question":1,"choices":"a\nb","answer":"B","id":5,"question_text":"Real text"}`), &r)
	require.NoError(t, err)

	assert.Equal(t, "1", r.Question)
	assert.Nil(t, r.Choices)
	assert.Equal(t, "a\nb", r.ChoicesText)
	assert.Equal(t, "B", r.Answer)
	assert.Equal(t, float64(5), r.Extra["id"])
	assert.Equal(t, "Real text", r.Extra["question_text"])
}

func TestRecordMarshalKeepsEmptyChoiceList(t *testing.T) {
	b, err := json.Marshal(Record{Question: "Q", Choices: []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":"Q","choices":[]}`, string(b))
}

func TestStripOpenEnded(t *testing.T) {
	text, ok := StripOpenEnded("  [TEXT_INPUT] Describe photosynthesis. ")
	assert.True(t, ok)
	assert.Equal(t, "Describe photosynthesis.", text)

	text, ok = StripOpenEnded(" What is 2+2? ")
	assert.False(t, ok)
	assert.Equal(t, "What is 2+2?", text)
}

func TestDecodePool(t *testing.T) {
	assert.Empty(t, DecodePool(""))
	assert.Empty(t, DecodePool("{not json"))
	assert.NotNil(t, DecodePool("null"))

	p := DecodePool(`[{"question":"What is 2+2?","choices":["3","4"],"answer":"4"}]`)
	require.Len(t, p, 1)
	assert.Equal(t, []string{"3", "4"}, p[0].Choices)

	blob, err := p.Encode()
	require.NoError(t, err)
	assert.Equal(t, p, DecodePool(blob))
}

func TestPoolCloneIsDeep(t *testing.T) {
	p := Pool{{Question: "Q", Choices: []string{"a"}, Extra: map[string]any{"k": "v"}}}
	c := p.Clone()
	c[0].Choices[0] = "changed"
	c[0].Extra["k"] = "changed"

	assert.Equal(t, "a", p[0].Choices[0])
	assert.Equal(t, "v", p[0].Extra["k"])
	assert.NotNil(t, Pool{{Choices: []string{}}}.Clone()[0].Choices)
}

func TestDecodeSideTable(t *testing.T) {
	got := DecodeSideTable(`{"1":"Easy","2":3,"x":"y","0":"z","3":null}`)
	assert.Equal(t, SideTable{1: "Easy", 2: "3"}, got)
	assert.Empty(t, DecodeSideTable("[]"))
	assert.Equal(t, "fallback", got.Get(7, "fallback"))
}

func TestSideTableRemoveAt(t *testing.T) {
	table := SideTable{1: "a", 2: "b", 3: "c", 4: "d", 9: "stale"}

	assert.Equal(t, SideTable{1: "a", 2: "c", 3: "d"}, table.RemoveAt(2, 4))
	assert.Equal(t, SideTable{1: "a", 2: "b", 3: "c"}, table.RemoveAt(4, 4))
	assert.Equal(t, SideTable{1: "b", 2: "c", 3: "d"}, table.RemoveAt(1, 4))
	assert.Len(t, table, 5, "receiver must be left untouched")
}

func TestResolve(t *testing.T) {
	t.Run("placeholder question falls through to choices", func(t *testing.T) {
		r := Record{Question: "3", Choices: []string{"100", "What is the boiling point of water at sea level?", "90"}}
		assert.Equal(t, "What is the boiling point of water at sea level?", Resolve(r, DifficultyMedium, "100"))
	})

	t.Run("strips open ended marker", func(t *testing.T) {
		r := Record{Question: OpenEndedPrefix + " Explain photosynthesis."}
		assert.Equal(t, "Explain photosynthesis.", Resolve(r, DifficultyMedium, ManualGrade))
	})

	t.Run("alternate text keys", func(t *testing.T) {
		r := Record{Question: "Medium", Extra: map[string]any{"questionText": "Name the largest planet."}}
		assert.Equal(t, "Name the largest planet.", Resolve(r, DifficultyMedium, ""))
	})

	t.Run("delimited choices", func(t *testing.T) {
		r := Record{Question: "", ChoicesText: "A,Which gas do plants absorb?\r\nB"}
		assert.Equal(t, "Which gas do plants absorb?", Resolve(r, "", ""))
	})

	t.Run("reserved keys are ignored", func(t *testing.T) {
		r := Record{Question: "1", Extra: map[string]any{"Type": "a long reserved value", "note": "Short note"}}
		assert.Equal(t, "Short note", Resolve(r, "", ""))
	})

	t.Run("answer fallback", func(t *testing.T) {
		r := Record{Question: "1"}
		answer := "The mitochondria produces ATP"
		assert.Equal(t, answer, Resolve(r, "", answer))
		assert.Equal(t, "", ResolveStrict(r, "", answer))
		assert.Equal(t, "", Resolve(r, "", "short"))
		assert.Equal(t, "", Resolve(r, "", "manual_grade  "))
	})
}

func TestRepair(t *testing.T) {
	pool := Pool{
		{Question: "1", Choices: []string{"What is the capital of France?", "Paris"}},
		{Question: "  Already fine  "},
		{Question: "2"},
	}
	n := Repair(pool, SideTable{}, SideTable{1: "Paris"})

	assert.Equal(t, 1, n)
	assert.Equal(t, "What is the capital of France?", pool[0].Question)
	assert.Equal(t, "  Already fine  ", pool[1].Question, "whitespace alone is not a repair")
	assert.Equal(t, "2", pool[2].Question)
}
