package search

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type tutor struct {
	ID      string
	Name    string
	Subject string
}

var (
	tutors = []tutor{
		{ID: "1", Name: "Ann", Subject: "math"},
		{ID: "2", Name: "Bob", Subject: "physics"},
		{ID: "3", Name: "Cara", Subject: "math"},
		{ID: "4", Name: "Dan", Subject: "all"},
	}
	nameField    = Field[tutor]{Name: "name", Value: func(t tutor) string { return t.Name }}
	subjectField = Field[tutor]{Name: "subject", Value: func(t tutor) string { return t.Subject }}
	subject      = Filter[tutor]{Key: "subject", Label: "Subject", Value: func(t tutor) string { return t.Subject }}
)

func tutorIDs(rows []tutor) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestEngine(t *testing.T) {
	var notified [][]string
	e := New(Options[tutor]{
		Fields:   []Field[tutor]{nameField},
		Filters:  []Filter[tutor]{subject},
		OnFilter: func(rows []tutor) { notified = append(notified, tutorIDs(rows)) },
	})

	e.SetRows(tutors)
	assert.Equal(t, []string{"1", "2", "3", "4"}, tutorIDs(e.Filtered()), "empty query and no filters is identity")

	e.SetQuery("an")
	assert.Equal(t, []string{"1", "4"}, tutorIDs(e.Filtered()))

	e.SetQuery("AN")
	assert.Equal(t, []string{"1", "4"}, tutorIDs(e.Filtered()), "case-insensitive")

	assert.True(t, e.SetFilter("subject", Is("math")))
	assert.Equal(t, []string{"1"}, tutorIDs(e.Filtered()))

	e.SetQuery("")
	assert.Equal(t, []string{"1", "3"}, tutorIDs(e.Filtered()))

	assert.True(t, e.SetFilter("subject", Is("all")))
	assert.Equal(t, []string{"4"}, tutorIDs(e.Filtered()), "\"all\" is a real value")

	assert.True(t, e.SetFilter("subject", Unconstrained()))
	assert.Len(t, e.Filtered(), 4)

	assert.False(t, e.SetFilter("grade", Is("5")))

	e.SetFilter("subject", Is("physics"))
	e.ClearFilters()
	assert.Len(t, e.Filtered(), 4)
	assert.False(t, e.FilterValue("subject").IsConstrained())

	assert.Len(t, notified, 9, "every recompute is notified")
}

func TestEngineSearchesEveryField(t *testing.T) {
	e := New(Options[tutor]{Fields: []Field[tutor]{nameField, subjectField}})
	e.SetRows(tutors)
	e.Submit("phys")
	assert.Equal(t, []string{"2"}, tutorIDs(e.Filtered()))
	assert.Equal(t, "phys", e.Query())
	assert.Equal(t, []string{"phys"}, e.Recent())
}

func TestApplyKeepsOrder(t *testing.T) {
	rows := []tutor{tutors[2], tutors[0], tutors[1]}
	got := Apply(rows, "", nil, []Constraint[tutor]{{Value: subject.Value, Want: "math"}})
	assert.Equal(t, []string{"3", "1"}, tutorIDs(got))
}

func TestOptionsOf(t *testing.T) {
	opts := OptionsOf(tutors, subject.Value, nil)
	assert.Equal(t, []Option{
		{Value: "all", Label: "all"},
		{Value: "math", Label: "math"},
		{Value: "physics", Label: "physics"},
	}, opts)
}

func TestRecent(t *testing.T) {
	tests := []struct {
		name    string
		queries []string
		want    []string
	}{
		{name: "most recent first", queries: []string{"a", "b"}, want: []string{"b", "a"}},
		{name: "capped", queries: []string{"1", "2", "3", "4", "5", "6"}, want: []string{"6", "5", "4", "3", "2"}},
		{name: "duplicate of most recent", queries: []string{"a", "b", "b"}, want: []string{"b", "a"}},
		{name: "duplicate moves to front", queries: []string{"a", "b", "c", "a"}, want: []string{"a", "c", "b"}},
		{name: "blank ignored", queries: []string{"a", "  ", ""}, want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecent()
			for _, q := range tt.queries {
				r.Add(q)
			}
			assert.Equal(t, tt.want, r.List())
		})
	}
}

func TestRecentStore(t *testing.T) {
	s := NewRecentStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add("u1", fmt.Sprintf("q%d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.List("u1"), MaxRecent)
	assert.Empty(t, s.List("u2"))
	assert.Equal(t, []string{"x"}, s.Add("u2", "x"))
}
