package domain

import "testing"

func testStructure() *DocumentStructure {
	return &DocumentStructure{
		ExamName: "State Engineering Entrance",
		ExamType: "engineering",
		Year:     2023,
		Papers: []PaperInfo{
			{
				ID:        "paper-1",
				Name:      "Paper I",
				StartPage: 1,
				EndPage:   10,
				Sections: []SectionInfo{
					{Name: "Physics", StartPage: 2, EndPage: 5, Subject: "Physics"},
					{Name: "Chemistry", StartPage: 6, EndPage: 10, Subject: "Chemistry"},
				},
			},
			{
				ID:        "paper-2",
				Name:      "Paper II",
				StartPage: 11,
				EndPage:   20,
			},
		},
	}
}

func TestPageIndexLookup(t *testing.T) {
	idx := BuildPageIndex(testStructure())

	tests := []struct {
		name        string
		page        int
		found       bool
		paperID     string
		sectionName string
		subject     string
	}{
		{name: "instructions page before sections", page: 1, found: true, paperID: "paper-1"},
		{name: "first section start", page: 2, found: true, paperID: "paper-1", sectionName: "Physics", subject: "Physics"},
		{name: "second section interior", page: 8, found: true, paperID: "paper-1", sectionName: "Chemistry", subject: "Chemistry"},
		{name: "sectionless paper", page: 15, found: true, paperID: "paper-2"},
		{name: "last page of document", page: 20, found: true, paperID: "paper-2"},
		{name: "page beyond document", page: 21, found: false},
		{name: "page zero", page: 0, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := idx.Lookup(tt.page)
			if ok != tt.found {
				t.Fatalf("Lookup(%d) found = %v, want %v", tt.page, ok, tt.found)
			}
			if !ok {
				return
			}
			if loc.PaperID != tt.paperID {
				t.Errorf("paper = %q, want %q", loc.PaperID, tt.paperID)
			}
			if loc.SectionName != tt.sectionName {
				t.Errorf("section = %q, want %q", loc.SectionName, tt.sectionName)
			}
			if loc.Subject != tt.subject {
				t.Errorf("subject = %q, want %q", loc.Subject, tt.subject)
			}
		})
	}
}

func TestPageIndexNilStructure(t *testing.T) {
	idx := BuildPageIndex(nil)
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d ranges", idx.Len())
	}
	if _, ok := idx.Lookup(1); ok {
		t.Error("lookup on empty index should miss")
	}
}
