package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leishu/pkg/core"
)

func span(s string) string { return DefaultOpen + s + DefaultClose }

func TestChars(t *testing.T) {
	assert.Equal(t, Set("永乐大典"), Chars("永乐 AND 大典", "永乐"))
	assert.Empty(t, Chars("NOT abc 123 ，。"))
	assert.Equal(t, Set("永乐典"), Set("永乐").Union(Chars("乐典")))
}

func TestText(t *testing.T) {
	h := New("", "")
	tests := []struct {
		name string
		text string
		set  Set
		want string
	}{
		{name: "run wrapped once", text: "永乐大典", set: Chars("永乐大典"), want: span("永乐大典")},
		{name: "separate runs", text: "永乐元年，修大典", set: Chars("永乐大典"), want: span("永乐") + "元年，修" + span("大典")},
		{name: "order inside run irrelevant", text: "乐永", set: Chars("永乐"), want: span("乐永")},
		{name: "no match", text: "太平御览", set: Chars("永乐"), want: "太平御览"},
		{name: "empty set", text: "永乐", set: nil, want: "永乐"},
		{name: "empty text", text: "", set: Chars("永"), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Text(tt.text, tt.set))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	h := New("", "")
	set := Chars("永乐大典")
	for _, text := range []string{"永乐大典", "明永乐年间修大典···", "无关"} {
		once := h.Text(text, set)
		assert.Equal(t, once, h.Text(once, set), text)
	}
}

func TestText_CustomMarker(t *testing.T) {
	h := New("[", "]")
	assert.Equal(t, "[永乐]大典", h.Text("永乐大典", Chars("乐永")))
	assert.Equal(t, "[永乐]大典", h.Text("[永乐]大典", Chars("乐永")))
}

func TestForQuery(t *testing.T) {
	sets := ForQuery([]core.Condition{
		{Field: core.FieldTitle, Keyword: "永乐"},
		{Field: core.FieldFullText, Keyword: "大典 NOT 类书", Logic: core.LogicAnd},
		{Field: core.FieldTitle, Keyword: "大", Logic: core.LogicOr},
		{Field: core.FieldDynasty, Keyword: "明", Logic: core.LogicAnd},
	})
	assert.Equal(t, Sets{
		core.FieldTitle:    Set("永乐大"),
		core.FieldFullText: Set("大典类书"),
	}, sets)
}

func TestForQuery_WildcardMergesAllFields(t *testing.T) {
	sets := ForQuery([]core.Condition{
		{Field: core.FieldAll, Keyword: "永乐大典"},
		{Field: core.FieldDynasty, Keyword: "明", Logic: core.LogicAnd},
	})
	assert.Len(t, sets, len(core.HighlightFields))
	for _, f := range core.HighlightFields {
		assert.Equal(t, Set("永乐大典明"), sets[f], f)
	}
}

func TestResult(t *testing.T) {
	h := New("", "")
	r := core.Result{
		DocTitle:  core.Some("永乐大典"),
		TitleName: core.Some(""),
		Dynasty:   core.Some("永乐"),
	}
	h.Result(&r, Sets{core.FieldTitle: Chars("永乐"), core.FieldTitleName: Chars("永"), core.FieldFullText: Chars("永")})

	assert.Equal(t, core.Some(span("永乐")+"大典"), r.DocTitle)
	assert.Equal(t, core.Some(""), r.TitleName)
	assert.False(t, r.FullText.IsSet())
	assert.Equal(t, core.Some("永乐"), r.Dynasty)
}
