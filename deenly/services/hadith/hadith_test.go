package hadith

import (
	"errors"
	"strings"
	"testing"

	"deenly/deenly/domain"
)

func TestLoadBundled(t *testing.T) {
	lib, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	cols := lib.Collections()
	if len(cols) != 3 {
		t.Fatalf("got %d collections, want 3", len(cols))
	}
	for _, c := range cols {
		if len(c.Hadiths) != 0 {
			t.Errorf("listing of %s carries hadiths", c.ID)
		}
	}

	bukhari, err := lib.Collection("bukhari")
	if err != nil {
		t.Fatal(err)
	}
	if len(bukhari.Hadiths) != 2 || bukhari.Hadiths[1].Number != 8 {
		t.Errorf("bukhari = %+v", bukhari)
	}
	if _, err := lib.Collection("tirmidhi"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown collection err = %v", err)
	}
}

func TestSearch(t *testing.T) {
	lib, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		query string
		ids   []string
	}{
		{"INTENCIONES", []string{"b1", "n1"}},
		{"abu hurairah", []string{"m1"}},
		{"Sahih al-Bukhari 8", []string{"b2"}},
		{"fundamentos", []string{"n1", "n2"}},
		{"   ", nil},
		{"tawaf", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := lib.Search(tt.query)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.ids, ",") {
				t.Errorf("Search(%q) = %v, want %v", tt.query, ids, tt.ids)
			}
		})
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	_, err := Parse([]byte("- id: a\n  name: A\n- id: a\n  name: B\n"))
	if err == nil {
		t.Error("duplicate ids accepted")
	}
}

const page = `<html><head><style>.hadith{}</style></head><body>
<h1>Riyad as-Salihin</h1>
<div class="hadith" data-number="3">
  <span class="book">Sinceridad</span>
  <span class="narrator">Aisha</span>
  <p class="text">No hay emigración
     después de la conquista<script>track()</script></p>
  <span class="reference">Riyad as-Salihin 3</span>
</div>
<div class="hadith">
  <p class="text">El mejor de vosotros es quien aprende el Corán y lo enseña.</p>
</div>
<div class="hadith"><p class="text">  </p></div>
</body></html>`

func TestImportHTML(t *testing.T) {
	col, err := ImportHTML(strings.NewReader(page), "riyad")
	if err != nil {
		t.Fatal(err)
	}
	if col.Name != "Riyad as-Salihin" || len(col.Hadiths) != 2 {
		t.Fatalf("collection = %+v", col)
	}
	first := col.Hadiths[0]
	if first.ID != "r3" || first.Number != 3 || first.Narrator != "Aisha" || first.Book != "Sinceridad" {
		t.Errorf("first = %+v", first)
	}
	if first.Text != "No hay emigración después de la conquista" {
		t.Errorf("text = %q", first.Text)
	}
	second := col.Hadiths[1]
	if second.Number != 2 || second.Reference != "Riyad as-Salihin 2" {
		t.Errorf("second = %+v", second)
	}
}

func TestImportHTMLEmpty(t *testing.T) {
	if _, err := ImportHTML(strings.NewReader("<html><body><p>nada</p></body></html>"), "x"); err == nil {
		t.Error("page without hadiths accepted")
	}
}
