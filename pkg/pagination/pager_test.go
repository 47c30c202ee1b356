package pagination

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// fakeListing serves pages from a fixed id list and can fail at one offset.
type fakeListing struct {
	ids      []int
	failAt   int
	failErr  error
	requests []int
}

func (f *fakeListing) FetchPage(_ context.Context, offset, limit int) ([]int, error) {
	f.requests = append(f.requests, offset)
	if f.failErr != nil && offset == f.failAt {
		return nil, f.failErr
	}
	if offset >= len(f.ids) {
		return []int{}, nil
	}
	end := offset + limit
	if end > len(f.ids) {
		end = len(f.ids)
	}
	return f.ids[offset:end], nil
}

type countingPauser struct {
	calls int
	err   error
}

func (c *countingPauser) Pause(context.Context) error {
	c.calls++
	return c.err
}

func seq(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func TestPager_CollectIDs(t *testing.T) {
	networkErr := errors.New("connection reset by peer")

	tests := []struct {
		name        string
		listing     *fakeListing
		pageSize    int
		wantIDs     int
		wantPages   int
		wantOffsets []int
		wantPauses  int
		wantErr     error
	}{
		{
			name:        "empty first page",
			listing:     &fakeListing{},
			pageSize:    100,
			wantIDs:     0,
			wantPages:   0,
			wantOffsets: []int{0},
			wantPauses:  0,
		},
		{
			name:        "exact multiple of page size",
			listing:     &fakeListing{ids: seq(200)},
			pageSize:    100,
			wantIDs:     200,
			wantPages:   2,
			wantOffsets: []int{0, 100, 200},
			wantPauses:  2,
		},
		{
			name:        "short last page",
			listing:     &fakeListing{ids: seq(250)},
			pageSize:    100,
			wantIDs:     250,
			wantPages:   3,
			wantOffsets: []int{0, 100, 200, 300},
			wantPauses:  3,
		},
		{
			name:        "failure keeps partial ids",
			listing:     &fakeListing{ids: seq(500), failAt: 200, failErr: networkErr},
			pageSize:    100,
			wantIDs:     200,
			wantPages:   2,
			wantOffsets: []int{0, 100, 200},
			wantPauses:  2,
			wantErr:     networkErr,
		},
		{
			name:        "failure on first page",
			listing:     &fakeListing{ids: seq(10), failAt: 0, failErr: networkErr},
			pageSize:    100,
			wantIDs:     0,
			wantPages:   0,
			wantOffsets: []int{0},
			wantPauses:  0,
			wantErr:     networkErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pauser := &countingPauser{}
			pager := NewPager(tt.listing, pauser, Config{PageSize: tt.pageSize})

			result := pager.CollectIDs(context.Background())

			if len(result.IDs) != tt.wantIDs {
				t.Errorf("len(IDs) = %d, want %d", len(result.IDs), tt.wantIDs)
			}
			if result.Pages != tt.wantPages {
				t.Errorf("Pages = %d, want %d", result.Pages, tt.wantPages)
			}
			if !reflect.DeepEqual(tt.listing.requests, tt.wantOffsets) {
				t.Errorf("offsets = %v, want %v", tt.listing.requests, tt.wantOffsets)
			}
			if pauser.calls != tt.wantPauses {
				t.Errorf("pauses = %d, want %d", pauser.calls, tt.wantPauses)
			}
			if !errors.Is(result.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", result.Err, tt.wantErr)
			}
			if result.Partial() != (tt.wantErr != nil) {
				t.Errorf("Partial() = %v, want %v", result.Partial(), tt.wantErr != nil)
			}
		})
	}
}

func TestPager_PreservesOrder(t *testing.T) {
	listing := &fakeListing{ids: []int{42, 7, 19, 3, 88}}
	pager := NewPager(listing, nil, Config{PageSize: 2})

	result := pager.CollectIDs(context.Background())

	if !reflect.DeepEqual(result.IDs, listing.ids) {
		t.Errorf("IDs = %v, want %v", result.IDs, listing.ids)
	}
}

func TestPager_DefaultPageSize(t *testing.T) {
	var gotLimit int
	fetcher := PageFetcherFunc(func(_ context.Context, offset, limit int) ([]int, error) {
		gotLimit = limit
		return nil, nil
	})

	NewPager(fetcher, nil, Config{}).CollectIDs(context.Background())

	if gotLimit != DefaultPageSize {
		t.Errorf("limit = %d, want %d", gotLimit, DefaultPageSize)
	}
}

func TestPager_PauseCancelled(t *testing.T) {
	listing := &fakeListing{ids: seq(300)}
	pauser := &countingPauser{err: context.Canceled}
	pager := NewPager(listing, pauser, Config{PageSize: 100})

	result := pager.CollectIDs(context.Background())

	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", result.Err)
	}
	if len(result.IDs) != 100 {
		t.Errorf("len(IDs) = %d, want 100", len(result.IDs))
	}
}
