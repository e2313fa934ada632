package domain

import "sort"

// PageLocation is the paper/section a page belongs to.
type PageLocation struct {
	PaperID     string
	PaperName   string
	SectionName string
	Subject     string
}

type pageRange struct {
	start, end int
	loc        PageLocation
}

// PageIndex maps page numbers to their paper and section. It is built once
// from a DocumentStructure and answers lookups by binary search over a
// sorted range list.
type PageIndex struct {
	ranges []pageRange
}

// BuildPageIndex constructs the index from the inferred structure. Section
// ranges shadow their paper range; a page inside a paper but outside any
// section resolves to the paper alone.
func BuildPageIndex(ds *DocumentStructure) *PageIndex {
	idx := &PageIndex{}
	if ds == nil {
		return idx
	}

	for _, paper := range ds.Papers {
		if len(paper.Sections) == 0 {
			idx.ranges = append(idx.ranges, pageRange{
				start: paper.StartPage,
				end:   paper.EndPage,
				loc: PageLocation{
					PaperID:   paper.ID,
					PaperName: paper.Name,
				},
			})
			continue
		}

		cursor := paper.StartPage
		for _, sec := range paper.Sections {
			// gap before the section resolves to the bare paper
			if sec.StartPage > cursor {
				idx.ranges = append(idx.ranges, pageRange{
					start: cursor,
					end:   sec.StartPage - 1,
					loc:   PageLocation{PaperID: paper.ID, PaperName: paper.Name},
				})
			}
			idx.ranges = append(idx.ranges, pageRange{
				start: sec.StartPage,
				end:   sec.EndPage,
				loc: PageLocation{
					PaperID:     paper.ID,
					PaperName:   paper.Name,
					SectionName: sec.Name,
					Subject:     sec.Subject,
				},
			})
			if sec.EndPage+1 > cursor {
				cursor = sec.EndPage + 1
			}
		}
		if cursor <= paper.EndPage {
			idx.ranges = append(idx.ranges, pageRange{
				start: cursor,
				end:   paper.EndPage,
				loc:   PageLocation{PaperID: paper.ID, PaperName: paper.Name},
			})
		}
	}

	sort.Slice(idx.ranges, func(i, j int) bool {
		return idx.ranges[i].start < idx.ranges[j].start
	})

	return idx
}

// Lookup resolves a page number to its location. The second return value is
// false when the page falls outside every known range.
func (idx *PageIndex) Lookup(page int) (PageLocation, bool) {
	i := sort.Search(len(idx.ranges), func(i int) bool {
		return idx.ranges[i].end >= page
	})
	if i < len(idx.ranges) && idx.ranges[i].start <= page && page <= idx.ranges[i].end {
		return idx.ranges[i].loc, true
	}
	return PageLocation{}, false
}

// Len returns the number of indexed ranges.
func (idx *PageIndex) Len() int {
	return len(idx.ranges)
}
