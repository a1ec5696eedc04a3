package sortkey

import (
	"sort"
	"testing"

	"github.com/okhose/annals/internal/dateparse"
	"github.com/okhose/annals/internal/model"
)

func TestComputeEstablishedUnknownSortsFirst(t *testing.T) {
	p := dateparse.New()

	established := Compute(p.Parse("no date on record", nil), model.EventEstablished)
	before1800 := Compute(p.Parse("before 1800", nil), model.EventCustom)
	dated := Compute(p.Parse("1850", nil), model.EventVisit)

	if established >= before1800 {
		t.Errorf("established unknown key %d does not precede before-1800 key %d", established, before1800)
	}
	if established >= dated {
		t.Errorf("established unknown key %d does not precede dated key %d", established, dated)
	}
}

func TestComputeUnknownSortsLast(t *testing.T) {
	p := dateparse.New()

	unknown := Compute(p.Parse("gibberish", nil), model.EventVisit)
	dated := Compute(p.Parse("2020-01-01", nil), model.EventVisit)

	if unknown != model.SortKeyMax {
		t.Errorf("unknown visit key = %d, want maximal sentinel", unknown)
	}
	if unknown <= dated {
		t.Errorf("unknown key %d does not follow dated key %d", unknown, dated)
	}
}

func TestComputeBeforeOrdersAtBound(t *testing.T) {
	p := dateparse.New()

	before1950 := Compute(p.Parse("before 1950", nil), model.EventCustom)
	year1949 := Compute(p.Parse("1949", nil), model.EventCustom)
	year1950 := Compute(p.Parse("1950", nil), model.EventCustom)

	if before1950 <= year1949 {
		t.Errorf("before-1950 key %d sorts under 1949 key %d", before1950, year1949)
	}
	if before1950 > year1950 {
		t.Errorf("before-1950 key %d sorts past 1950 key %d", before1950, year1950)
	}
}

func TestLessTieBreaks(t *testing.T) {
	// Same date: insertion order decides.
	a := Key{DateSort: 19200101, Seq: 1, TypePrio: 0}
	b := Key{DateSort: 19200101, Seq: 2, TypePrio: 3}
	if !Less(a, b) {
		t.Error("earlier Seq does not win a date tie")
	}

	// Same date and Seq: higher-priority type first.
	c := Key{DateSort: 19200101, Seq: 1, TypePrio: 3}
	d := Key{DateSort: 19200101, Seq: 1, TypePrio: 1}
	if !Less(c, d) {
		t.Error("higher type priority does not win a full tie")
	}
}

func TestFullOrdering(t *testing.T) {
	p := dateparse.New()

	mk := func(raw string, typ model.EventType, seq int64) model.TimelineEvent {
		d := p.Parse(raw, nil)
		return model.TimelineEvent{
			EventType: typ,
			DateSort:  Compute(d, typ),
			Seq:       seq,
		}
	}

	events := []model.TimelineEvent{
		mk("unreadable", model.EventVisit, 1),
		mk("1950", model.EventVisit, 2),
		mk("before 1800", model.EventCustom, 3),
		mk("no date", model.EventEstablished, 4),
		mk("1920s", model.EventVisit, 5),
	}

	sort.Slice(events, func(i, j int) bool {
		return Less(ForEvent(events[i]), ForEvent(events[j]))
	})

	wantSeq := []int64{4, 3, 5, 2, 1}
	for i, want := range wantSeq {
		if events[i].Seq != want {
			t.Fatalf("position %d has seq %d, want %d", i, events[i].Seq, want)
		}
	}
}
