package service

import (
	"reflect"
	"testing"
)

func TestMergeChildIDs(t *testing.T) {
	tests := []struct {
		name     string
		existing []int64
		incoming []int64
		want     []int64
	}{
		{"empty existing", nil, []int64{1, 2}, []int64{1, 2}},
		{"disjoint sets", []int64{1}, []int64{2, 3}, []int64{1, 2, 3}},
		{"overlapping sets", []int64{1, 2}, []int64{2, 3}, []int64{1, 2, 3}},
		{"identical selection is a no-op", []int64{1, 2}, []int64{1, 2}, []int64{1, 2}},
		{"duplicates within incoming", []int64{1}, []int64{2, 2, 3}, []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeChildIDs(tt.existing, tt.incoming)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("mergeChildIDs(%v, %v) = %v, want %v", tt.existing, tt.incoming, got, tt.want)
			}
		})
	}
}

func TestRemoveChildID(t *testing.T) {
	tests := []struct {
		name    string
		ids     []int64
		childID int64
		want    []int64
	}{
		{"remove from middle", []int64{1, 2, 3}, 2, []int64{1, 3}},
		{"remove first", []int64{1, 2, 3}, 1, []int64{2, 3}},
		{"remove last remaining", []int64{5}, 5, []int64{}},
		{"absent id leaves set unchanged", []int64{1, 2}, 9, []int64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := removeChildID(tt.ids, tt.childID)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("removeChildID(%v, %d) = %v, want %v", tt.ids, tt.childID, got, tt.want)
			}
		})
	}
}
