// Package paginate lays records out into fixed-size carousel pages.
//
// Up to SinglePageLimit items fit on one page with no controls. Larger
// collections get a first page of FirstPageItems items and a Next control,
// middle pages of PageItems items between Previous and Next controls, and a
// last page holding a Previous control plus the tail. The tail is
// (n-FirstPageItems) mod PageItems items, or PageItems when that is zero.
package paginate

import (
	"errors"
	"slices"
)

const (
	SinglePageLimit = 9
	FirstPageItems  = 8
	PageItems       = 7
)

var ErrOutOfBound = errors.New("page out of bound")

type Direction int

const (
	Previous Direction = iota
	Next
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// Entry is an item with its position in the ordered snapshot.
type Entry[T any] struct {
	Index int
	Item  T
}

// Layout renders entries and controls into cards of type C.
type Layout[T, C any] struct {
	Compare func(a, b T) int
	Card    func(Entry[T]) C
	Control func(dir Direction, target int) C
}

// Pages orders items with Compare and splits them into pages. It always
// returns at least one page.
func (l Layout[T, C]) Pages(items []T) [][]C {
	sorted := slices.Clone(items)
	if l.Compare != nil {
		slices.SortStableFunc(sorted, l.Compare)
	}

	cards := func(from, to int) []C {
		out := make([]C, 0, to-from)
		for i := from; i < to; i++ {
			out = append(out, l.Card(Entry[T]{Index: i, Item: sorted[i]}))
		}
		return out
	}

	n := len(sorted)
	if n <= SinglePageLimit {
		return [][]C{cards(0, n)}
	}

	tailStart := n - tailSize(n)
	pages := make([][]C, 0, Count(n))

	front := append(cards(0, FirstPageItems), l.Control(Next, 1))
	pages = append(pages, front)

	for start := FirstPageItems; start < tailStart; start += PageItems {
		page := len(pages)
		p := make([]C, 0, PageItems+2)
		p = append(p, l.Control(Previous, page-1))
		p = append(p, cards(start, start+PageItems)...)
		p = append(p, l.Control(Next, page+1))
		pages = append(pages, p)
	}

	back := append([]C{l.Control(Previous, len(pages)-1)}, cards(tailStart, n)...)
	return append(pages, back)
}

// Page returns page index of items, or ErrOutOfBound.
func (l Layout[T, C]) Page(items []T, index int) ([]C, error) {
	pages := l.Pages(items)
	if index < 0 || index >= len(pages) {
		return nil, ErrOutOfBound
	}
	return pages[index], nil
}

// Count is the number of pages produced for n items.
func Count(n int) int {
	if n <= SinglePageLimit {
		return 1
	}
	return 2 + (n-FirstPageItems-tailSize(n))/PageItems
}

func tailSize(n int) int {
	if r := (n - FirstPageItems) % PageItems; r != 0 {
		return r
	}
	return PageItems
}

// By chains comparators; later ones break ties of earlier ones.
func By[T any](keys ...func(a, b T) int) func(a, b T) int {
	return func(a, b T) int {
		for _, k := range keys {
			if c := k(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}
